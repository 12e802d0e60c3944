// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
)

// =============================================================================
// METRICS TYPES
// =============================================================================

// UsageInfo holds token usage counts from a completion response.
// All fields are optional; servers report what they can.
type UsageInfo struct {
	PromptTokens     *int `json:"prompt_tokens,omitempty"`
	CompletionTokens *int `json:"completion_tokens,omitempty"`
	TotalTokens      *int `json:"total_tokens,omitempty"`
}

// TimingsInfo holds performance timings reported by llama.cpp-style servers.
type TimingsInfo struct {
	PromptMS          *float64 `json:"prompt_ms,omitempty"`
	PromptPerSecond   *float64 `json:"prompt_per_second,omitempty"`
	PredictedMS       *float64 `json:"predicted_ms,omitempty"`
	PredictedPerSecond *float64 `json:"predicted_per_second,omitempty"`
}

// MessageMetrics holds response metadata attached to completed assistant
// messages. Every field is optional.
type MessageMetrics struct {
	Usage             *UsageInfo   `json:"usage,omitempty"`
	Timings           *TimingsInfo `json:"timings,omitempty"`
	Created           *int64       `json:"created,omitempty"`
	Model             *string      `json:"model,omitempty"`
	ID                *string      `json:"id,omitempty"`
	SystemFingerprint *string      `json:"system_fingerprint,omitempty"`
}

// =============================================================================
// METRICS METHODS
// =============================================================================

// IsEmpty returns true if no field carries a value.
func (m *MessageMetrics) IsEmpty() bool {
	if m == nil {
		return true
	}
	return m.Usage == nil && m.Timings == nil && m.Created == nil &&
		m.Model == nil && m.ID == nil && m.SystemFingerprint == nil
}

// FormatLine renders the metrics as a compact single line for display
// beneath an assistant message.
//
// Preference order: token usage, then timings, then whatever identifying
// metadata is present. Returns "No metrics available" when nothing is set.
func (m *MessageMetrics) FormatLine() string {
	if m.IsEmpty() {
		return "No metrics available"
	}

	var parts []string

	if u := m.Usage; u != nil {
		var usage []string
		if u.PromptTokens != nil {
			usage = append(usage, fmt.Sprintf("input: %d", *u.PromptTokens))
		}
		if u.CompletionTokens != nil {
			usage = append(usage, fmt.Sprintf("output: %d", *u.CompletionTokens))
		}
		if u.TotalTokens != nil {
			usage = append(usage, fmt.Sprintf("total: %d", *u.TotalTokens))
		}
		if len(usage) > 0 {
			parts = append(parts, strings.Join(usage, " | "))
		}
	}

	if t := m.Timings; t != nil {
		var timings []string
		if t.PromptMS != nil && t.PromptPerSecond != nil {
			timings = append(timings, fmt.Sprintf("prompt: %.0fms %.1ft/s", *t.PromptMS, *t.PromptPerSecond))
		}
		if t.PredictedMS != nil && t.PredictedPerSecond != nil {
			timings = append(timings, fmt.Sprintf("gen: %.0fms %.1ft/s", *t.PredictedMS, *t.PredictedPerSecond))
		}
		if len(timings) > 0 {
			parts = append(parts, strings.Join(timings, " | "))
		}
	}

	if len(parts) > 0 {
		return strings.Join(parts, " | ")
	}

	// Fall back to identifying metadata when neither usage nor timings
	// were reported.
	switch {
	case m.Created != nil:
		return fmt.Sprintf("Created: %d", *m.Created)
	case m.Model != nil:
		return fmt.Sprintf("Model: %s", *m.Model)
	case m.ID != nil:
		return fmt.Sprintf("ID: %s", *m.ID)
	case m.SystemFingerprint != nil:
		return fmt.Sprintf("Fingerprint: %s", *m.SystemFingerprint)
	}
	return "No metrics available"
}
