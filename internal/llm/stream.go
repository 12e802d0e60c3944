// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
	"sync/atomic"

	"github.com/jeranaias/llamachat-tui/internal/model"
)

// =============================================================================
// STREAM DECODING
// =============================================================================

// DeltaCallback is called once per decoded content delta, in arrival order.
// Deltas are never batched or re-split; the callback sees exactly what the
// server sent.
type DeltaCallback func(delta string)

// StreamResult holds the outcome of decoding a streaming response.
type StreamResult struct {
	// Content is the full accumulated response text. On cancellation it
	// holds whatever arrived before the stop.
	Content string

	// Metrics holds response metadata if the server reported any, either
	// in stream chunks or in a trailing final object.
	Metrics *model.MessageMetrics

	// Canceled is true if decoding stopped because the cancel flag was set.
	Canceled bool
}

// DecodeStream reads an SSE chat completion stream and invokes onDelta for
// each content delta until the stream ends, the server sends [DONE], or
// cancel is set.
//
// The decoder is line-based: bytes are buffered until a newline completes
// a line, so the result does not depend on how the network happened to
// chunk the response. Lines that are not well-formed JSON data events are
// dropped silently. After the stream ends, any unterminated trailing bytes
// are parsed best-effort for metrics; some servers send their final
// metrics object without a trailing newline.
//
// cancel may be nil when the caller has no cancellation path. onDelta may
// be nil to discard deltas.
func DecodeStream(r io.Reader, cancel *atomic.Bool, onDelta DeltaCallback) (*StreamResult, error) {
	result := &StreamResult{}
	metrics := &model.MessageMetrics{}

	var content strings.Builder
	reader := bufio.NewReader(r)

	for {
		if cancel != nil && cancel.Load() {
			result.Canceled = true
			break
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			// EOF with a partial line leaves the final bytes in line;
			// they get the trailing-buffer treatment below.
			if err == io.EOF {
				mergeTrailing(line, metrics)
				break
			}
			result.Content = content.String()
			result.Metrics = finalMetrics(metrics)
			return result, err
		}

		data, ok := dataPayload(line)
		if !ok {
			continue
		}
		if data == "[DONE]" {
			break
		}

		var chunk StreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Malformed line; drop it and keep the stream alive.
			continue
		}

		mergeChunkMetrics(&chunk, metrics)

		if delta := chunk.GetContent(); delta != "" {
			content.WriteString(delta)
			if onDelta != nil {
				onDelta(delta)
			}
		}
	}

	result.Content = content.String()
	result.Metrics = finalMetrics(metrics)
	return result, nil
}

// dataPayload extracts the payload from an SSE data line.
func dataPayload(line string) (string, bool) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "data: ") {
		return "", false
	}
	return strings.TrimSpace(line[len("data: "):]), true
}

// mergeChunkMetrics folds metadata from a stream chunk into the running
// metrics. Later values win; servers that report metrics do so on their
// final chunk.
func mergeChunkMetrics(chunk *StreamChunk, m *model.MessageMetrics) {
	if chunk.Usage != nil {
		m.Usage = chunk.Usage
	}
	if chunk.Timings != nil {
		m.Timings = chunk.Timings
	}
	if chunk.Created != nil {
		m.Created = chunk.Created
	}
	if chunk.Model != nil {
		m.Model = chunk.Model
	}
	if chunk.ID != nil {
		m.ID = chunk.ID
	}
	if chunk.SystemFingerprint != nil {
		m.SystemFingerprint = chunk.SystemFingerprint
	}
}

// mergeTrailing attempts to parse leftover unterminated bytes as a final
// metrics-bearing object. Failures are ignored; trailing garbage is not
// an error.
func mergeTrailing(buf string, m *model.MessageMetrics) {
	data := strings.TrimSpace(buf)
	if data == "" {
		return
	}
	if payload, ok := dataPayload(data + "\n"); ok {
		data = payload
	}
	if data == "" || data == "[DONE]" {
		return
	}

	var chunk StreamChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return
	}
	mergeChunkMetrics(&chunk, m)
}

// finalMetrics returns the collected metrics, or nil if nothing was seen.
func finalMetrics(m *model.MessageMetrics) *model.MessageMetrics {
	if m.IsEmpty() {
		return nil
	}
	return m
}
