// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
package model

import (
	"strings"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a session transcript.
//
// Messages are immutable once appended, with one exception: during streaming
// the orchestrator appends decoded deltas to the content of the last
// assistant message in place. Metrics are attached only to assistant
// messages, and only after a response completes.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Metrics is set on assistant messages after completion; nil otherwise.
	Metrics *MessageMetrics `json:"metrics,omitempty"`
}

// NewMessage creates a new message.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// NewAssistantMessage creates a new empty assistant message, ready to
// receive streamed deltas.
func NewAssistantMessage() Message {
	return Message{Role: RoleAssistant}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0
}

// Preview returns a truncated single-line preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	content := strings.ReplaceAll(m.Content, "\n", " ")
	content = strings.ReplaceAll(content, "\r", "")
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// EstimateTokens gives a rough estimate of token count.
// Uses the approximation of ~4 characters per token.
func (m *Message) EstimateTokens() int {
	return (len(m.Content) + 3) / 4
}

// CloneMessages returns a deep copy of a transcript. Metrics pointers are
// copied by value so a publish never aliases the in-flight transcript.
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	for i := range out {
		if out[i].Metrics != nil {
			mc := *out[i].Metrics
			out[i].Metrics = &mc
		}
	}
	return out
}
