// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"github.com/jeranaias/llamachat-tui/internal/model"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ChatMessage is the wire format for a single message in a completion
// request. Only role and content cross the wire; local metadata such as
// metrics stays on the app side.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// WireMessages converts a transcript to the wire format.
func WireMessages(msgs []model.Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ChatMessage{Role: m.Role.String(), Content: m.Content})
	}
	return out
}

// ChatRequest is a request to the chat completions endpoint.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ChatResponse is a non-streaming response from the chat completions
// endpoint. The metadata fields are pointers so absent fields stay
// distinguishable from zero values.
type ChatResponse struct {
	ID                *string `json:"id,omitempty"`
	Model             *string `json:"model,omitempty"`
	Created           *int64  `json:"created,omitempty"`
	SystemFingerprint *string `json:"system_fingerprint,omitempty"`
	Choices           []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage   *model.UsageInfo   `json:"usage,omitempty"`
	Timings *model.TimingsInfo `json:"timings,omitempty"`
}

// GetContent returns the content of the first choice, or empty string.
func (r *ChatResponse) GetContent() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Content
	}
	return ""
}

// Metrics converts the response metadata to message metrics, or nil if
// the response carried none.
func (r *ChatResponse) Metrics() *model.MessageMetrics {
	m := &model.MessageMetrics{
		Usage:             r.Usage,
		Timings:           r.Timings,
		Created:           r.Created,
		Model:             r.Model,
		ID:                r.ID,
		SystemFingerprint: r.SystemFingerprint,
	}
	if m.IsEmpty() {
		return nil
	}
	return m
}

// StreamChunk is a single decoded SSE data line from a streaming response.
type StreamChunk struct {
	ID                *string `json:"id,omitempty"`
	Model             *string `json:"model,omitempty"`
	Created           *int64  `json:"created,omitempty"`
	SystemFingerprint *string `json:"system_fingerprint,omitempty"`
	Choices           []struct {
		Delta struct {
			Content string `json:"content"`
			Role    string `json:"role,omitempty"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage   *model.UsageInfo   `json:"usage,omitempty"`
	Timings *model.TimingsInfo `json:"timings,omitempty"`
}

// GetContent returns the content from the first choice's delta.
func (c *StreamChunk) GetContent() string {
	if len(c.Choices) > 0 {
		return c.Choices[0].Delta.Content
	}
	return ""
}

// IsDone returns true if the chunk signals the end of generation.
func (c *StreamChunk) IsDone() bool {
	if len(c.Choices) > 0 {
		return c.Choices[0].FinishReason != ""
	}
	return false
}

// modelsResponse is the wire structure for the model list endpoint.
type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// apiErrorResponse is the wire structure for error bodies.
type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
