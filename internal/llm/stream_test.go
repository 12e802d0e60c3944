// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"strings"
	"sync/atomic"
	"testing"
	"testing/iotest"
)

func sseBody(lines ...string) string {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString("data: ")
		sb.WriteString(l)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func deltaChunk(content string) string {
	return `{"choices":[{"delta":{"content":` + jsonString(content) + `}}]}`
}

func jsonString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func TestDecodeStreamBasic(t *testing.T) {
	body := sseBody(
		deltaChunk("Hello"),
		deltaChunk(", "),
		deltaChunk("world"),
		"[DONE]",
	)

	var deltas []string
	result, err := DecodeStream(strings.NewReader(body), nil, func(d string) {
		deltas = append(deltas, d)
	})
	if err != nil {
		t.Fatalf("DecodeStream failed: %v", err)
	}

	if result.Content != "Hello, world" {
		t.Errorf("expected accumulated content, got %q", result.Content)
	}
	if len(deltas) != 3 {
		t.Fatalf("expected one callback per delta, got %d", len(deltas))
	}
	if deltas[0] != "Hello" || deltas[1] != ", " || deltas[2] != "world" {
		t.Errorf("deltas out of order: %v", deltas)
	}
	if result.Canceled {
		t.Error("stream should not be marked canceled")
	}
}

func TestDecodeStreamDoneStopsReading(t *testing.T) {
	body := sseBody(
		deltaChunk("before"),
		"[DONE]",
		deltaChunk("after"),
	)

	result, err := DecodeStream(strings.NewReader(body), nil, nil)
	if err != nil {
		t.Fatalf("DecodeStream failed: %v", err)
	}
	if result.Content != "before" {
		t.Errorf("content after [DONE] must be ignored, got %q", result.Content)
	}
}

func TestDecodeStreamDropsMalformedLines(t *testing.T) {
	body := "data: {not json\n\n" +
		sseBody(deltaChunk("ok")) +
		": comment line\n" +
		"event: ping\n" +
		"data: \n\n" +
		sseBody("[DONE]")

	result, err := DecodeStream(strings.NewReader(body), nil, nil)
	if err != nil {
		t.Fatalf("malformed lines must not fail the stream: %v", err)
	}
	if result.Content != "ok" {
		t.Errorf("expected only valid deltas kept, got %q", result.Content)
	}
}

func TestDecodeStreamRechunkingInvariant(t *testing.T) {
	body := sseBody(
		deltaChunk("один"),
		deltaChunk(" два"),
		`{"choices":[{"delta":{"content":" три"},"finish_reason":"stop"}],"usage":{"total_tokens":7}}`,
		"[DONE]",
	)

	whole, err := DecodeStream(strings.NewReader(body), nil, nil)
	if err != nil {
		t.Fatalf("DecodeStream failed: %v", err)
	}

	// Same bytes delivered one at a time must decode identically.
	bytewise, err := DecodeStream(iotest.OneByteReader(strings.NewReader(body)), nil, nil)
	if err != nil {
		t.Fatalf("DecodeStream failed on byte-wise reader: %v", err)
	}

	if whole.Content != bytewise.Content {
		t.Errorf("content depends on read chunking: %q vs %q", whole.Content, bytewise.Content)
	}
	if whole.Content != "один два три" {
		t.Errorf("unexpected content: %q", whole.Content)
	}
	if bytewise.Metrics == nil || bytewise.Metrics.Usage == nil || *bytewise.Metrics.Usage.TotalTokens != 7 {
		t.Error("metrics lost under byte-wise reads")
	}
}

func TestDecodeStreamMetricsFromFinalChunk(t *testing.T) {
	body := sseBody(
		deltaChunk("hi"),
		`{"model":"llama-3.2","choices":[{"delta":{},"finish_reason":"stop"}],"usage":{"prompt_tokens":4,"completion_tokens":1,"total_tokens":5},"timings":{"prompt_ms":12.5,"prompt_per_second":320.0,"predicted_ms":80.0,"predicted_per_second":12.5}}`,
		"[DONE]",
	)

	result, err := DecodeStream(strings.NewReader(body), nil, nil)
	if err != nil {
		t.Fatalf("DecodeStream failed: %v", err)
	}
	m := result.Metrics
	if m == nil {
		t.Fatal("expected metrics from final chunk")
	}
	if m.Usage == nil || *m.Usage.PromptTokens != 4 || *m.Usage.TotalTokens != 5 {
		t.Error("usage not captured")
	}
	if m.Timings == nil || *m.Timings.PredictedMS != 80.0 {
		t.Error("timings not captured")
	}
	if m.Model == nil || *m.Model != "llama-3.2" {
		t.Error("model not captured")
	}
}

func TestDecodeStreamTrailingMetrics(t *testing.T) {
	// Some servers emit a final metrics object with no trailing newline.
	body := sseBody(deltaChunk("partial")) +
		`{"usage":{"total_tokens":42}}`

	result, err := DecodeStream(strings.NewReader(body), nil, nil)
	if err != nil {
		t.Fatalf("DecodeStream failed: %v", err)
	}
	if result.Content != "partial" {
		t.Errorf("unexpected content: %q", result.Content)
	}
	if result.Metrics == nil || result.Metrics.Usage == nil || *result.Metrics.Usage.TotalTokens != 42 {
		t.Error("trailing metrics object not parsed")
	}
}

func TestDecodeStreamTrailingGarbageIgnored(t *testing.T) {
	body := sseBody(deltaChunk("fine")) + "leftover junk with no structure"

	result, err := DecodeStream(strings.NewReader(body), nil, nil)
	if err != nil {
		t.Fatalf("trailing garbage must not fail the stream: %v", err)
	}
	if result.Content != "fine" {
		t.Errorf("unexpected content: %q", result.Content)
	}
	if result.Metrics != nil {
		t.Error("garbage must not produce metrics")
	}
}

func TestDecodeStreamCancel(t *testing.T) {
	body := sseBody(
		deltaChunk("kept"),
		deltaChunk(" dropped"),
		"[DONE]",
	)

	var cancel atomic.Bool
	result, err := DecodeStream(strings.NewReader(body), &cancel, func(d string) {
		// Request the stop after the first delta arrives.
		cancel.Store(true)
	})
	if err != nil {
		t.Fatalf("DecodeStream failed: %v", err)
	}

	if !result.Canceled {
		t.Error("expected canceled result")
	}
	if result.Content != "kept" {
		t.Errorf("partial content before cancel must be kept, got %q", result.Content)
	}
}

func TestDecodeStreamEmptyDeltasSkipCallback(t *testing.T) {
	body := sseBody(
		`{"choices":[{"delta":{"role":"assistant","content":""}}]}`,
		deltaChunk("x"),
		"[DONE]",
	)

	calls := 0
	result, err := DecodeStream(strings.NewReader(body), nil, func(string) { calls++ })
	if err != nil {
		t.Fatalf("DecodeStream failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("empty deltas must not trigger the callback, got %d calls", calls)
	}
	if result.Content != "x" {
		t.Errorf("unexpected content: %q", result.Content)
	}
}
