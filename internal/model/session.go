// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlaceholderTitle is the title assigned to sessions before any title has
// been derived from their content. Automatic titling only ever replaces
// this value; a title set or derived once is never overwritten.
const PlaceholderTitle = "New Chat"

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session represents a single conversation thread with its full transcript.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSession creates a new session seeded with a system prompt message
// and a placeholder title.
func NewSession(systemPrompt string) *Session {
	return &Session{
		ID:        uuid.New().String(),
		Title:     PlaceholderTitle,
		Messages:  []Message{NewSystemMessage(systemPrompt)},
		CreatedAt: time.Now(),
	}
}

// =============================================================================
// SESSION METHODS
// =============================================================================

// IsEmpty returns true if the session contains no user or assistant
// messages. A lone system prompt does not count as content.
func (s *Session) IsEmpty() bool {
	for _, m := range s.Messages {
		if m.Role != RoleSystem {
			return false
		}
	}
	return true
}

// HasPlaceholderTitle returns true if the session still carries the
// default title.
func (s *Session) HasPlaceholderTitle() bool {
	return s.Title == PlaceholderTitle
}

// MessageCount returns the number of non-system messages.
func (s *Session) MessageCount() int {
	count := 0
	for _, m := range s.Messages {
		if m.Role != RoleSystem {
			count++
		}
	}
	return count
}

// LastMessage returns the last message in the transcript, or nil if the
// session is empty.
func (s *Session) LastMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

// SystemPrompt returns the content of the leading system message, or ""
// if the session has none.
func (s *Session) SystemPrompt() string {
	if len(s.Messages) > 0 && s.Messages[0].Role == RoleSystem {
		return s.Messages[0].Content
	}
	return ""
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	return &Session{
		ID:        s.ID,
		Title:     s.Title,
		Messages:  CloneMessages(s.Messages),
		CreatedAt: s.CreatedAt,
	}
}

// DeriveTitle produces a title from the given message content using the
// first-line heuristic: the first line, truncated to 40 runes with an
// ellipsis. Returns PlaceholderTitle for blank input.
func DeriveTitle(content string) string {
	line := content
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return PlaceholderTitle
	}
	runes := []rune(line)
	if len(runes) <= 40 {
		return line
	}
	return string(runes[:40]) + "..."
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders the session transcript as a Markdown document.
func (s *Session) ExportMarkdown() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", s.Title))
	sb.WriteString(fmt.Sprintf("*Created: %s*\n\n", s.CreatedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString("---\n\n")

	for _, m := range s.Messages {
		if m.Role == RoleSystem {
			continue
		}
		sb.WriteString(fmt.Sprintf("## %s\n\n", m.Role.DisplayName()))
		sb.WriteString(m.Content)
		sb.WriteString("\n\n")
		if m.Metrics != nil && !m.Metrics.IsEmpty() {
			sb.WriteString(fmt.Sprintf("*%s*\n\n", m.Metrics.FormatLine()))
		}
	}
	return sb.String()
}

// ExportJSON renders the session as indented JSON.
func (s *Session) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
