// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// =============================================================================
// CONTEXT MODE
// =============================================================================

// ContextMode selects how document context is attached to prompts.
type ContextMode string

const (
	// ContextModeManual attaches only documents the user references
	// explicitly with @-mentions.
	ContextModeManual ContextMode = "manual"

	// ContextModeRAG attaches every ingested document to every prompt.
	ContextModeRAG ContextMode = "rag"
)

// =============================================================================
// APP SETTINGS
// =============================================================================

// SavedPrompt is a named, reusable system prompt.
type SavedPrompt struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

// NewSavedPrompt creates a saved prompt with a fresh ID.
func NewSavedPrompt(name, prompt string) SavedPrompt {
	return SavedPrompt{
		ID:     uuid.New().String(),
		Name:   name,
		Prompt: prompt,
	}
}

// AppSettings holds user-adjustable settings persisted across restarts.
//
// Settings saved by older versions must keep loading: decoding never fails
// on missing fields, it only fills in defaults.
type AppSettings struct {
	SystemPrompt  string        `json:"system_prompt"`
	BaseURL       string        `json:"base_url"`
	SelectedModel string        `json:"selected_model"`
	StreamEnabled bool          `json:"stream_enabled"`
	SavedPrompts  []SavedPrompt `json:"saved_prompts"`
	ContextMode   ContextMode   `json:"context_mode"`
	ShowMetrics   bool          `json:"show_metrics"`
}

// DefaultSettings returns the settings used on first run.
func DefaultSettings() AppSettings {
	return AppSettings{
		SystemPrompt:  "You are a helpful assistant.",
		BaseURL:       "http://localhost:8080",
		SelectedModel: "default",
		StreamEnabled: true,
		SavedPrompts:  []SavedPrompt{},
		ContextMode:   ContextModeManual,
		ShowMetrics:   true,
	}
}

// DecodeSettings parses persisted settings JSON, filling defaults for any
// fields missing from older saves. A decode error returns defaults rather
// than failing; corrupt settings never block startup.
func DecodeSettings(data []byte) AppSettings {
	s := DefaultSettings()
	if len(data) == 0 {
		return s
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultSettings()
	}
	if s.SavedPrompts == nil {
		s.SavedPrompts = []SavedPrompt{}
	}
	if s.ContextMode != ContextModeManual && s.ContextMode != ContextModeRAG {
		s.ContextMode = ContextModeManual
	}
	return s
}
