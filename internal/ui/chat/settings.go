// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI.
//
// This file implements the settings overlay. The form edits a working
// copy of AppSettings; nothing touches the settings store until the user
// saves with ctrl+s.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/llamachat-tui/internal/model"
	"github.com/jeranaias/llamachat-tui/internal/util"
)

// =============================================================================
// SETTINGS FORM
// =============================================================================

// settingsField enumerates the rows of the settings form.
type settingsField int

const (
	fieldBaseURL settingsField = iota
	fieldModel
	fieldSystemPrompt
	fieldStream
	fieldContextMode
	fieldShowMetrics
	fieldSavedPrompts
	fieldCount
)

// settingsForm holds the state of the settings overlay.
type settingsForm struct {
	working model.AppSettings
	index   settingsField
	editing bool
	input   textinput.Model

	// Model list fetched from the server. fetchErr keeps the last fetch
	// failure for display; the saved model stays selected on failure.
	models   []string
	fetchErr string

	// Saved prompt cursor.
	promptIndex int
}

// open resets the form around a copy of the current settings.
func (f *settingsForm) open(s model.AppSettings) {
	f.working = s
	f.index = fieldBaseURL
	f.editing = false
	f.models = nil
	f.fetchErr = ""
	f.promptIndex = 0

	ti := textinput.New()
	ti.CharLimit = 2048
	ti.Width = 48
	f.input = ti
}

func (f *settingsForm) setWidth(w int) {
	width := w - 24
	if width > 64 {
		width = 64
	}
	if width < 20 {
		width = 20
	}
	f.input.Width = width
}

// applyModels installs a fetched model list. The selected model is kept
// when it is still offered; otherwise the first model wins. A fetch
// failure keeps the saved model and surfaces only the error string.
func (f *settingsForm) applyModels(models []string, err error) {
	if err != nil {
		f.fetchErr = err.Error()
		return
	}
	f.fetchErr = ""
	f.models = models
	if len(models) == 0 {
		return
	}
	for _, id := range models {
		if id == f.working.SelectedModel {
			return
		}
	}
	f.working.SelectedModel = models[0]
}

// cycleModel moves the model selection by delta within the fetched list.
func (f *settingsForm) cycleModel(delta int) {
	if len(f.models) == 0 {
		return
	}
	idx := 0
	for i, id := range f.models {
		if id == f.working.SelectedModel {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(f.models)) % len(f.models)
	f.working.SelectedModel = f.models[idx]
}

// toggle flips the value under the cursor for boolean and enum rows.
func (f *settingsForm) toggle() {
	switch f.index {
	case fieldStream:
		f.working.StreamEnabled = !f.working.StreamEnabled
	case fieldContextMode:
		if f.working.ContextMode == model.ContextModeManual {
			f.working.ContextMode = model.ContextModeRAG
		} else {
			f.working.ContextMode = model.ContextModeManual
		}
	case fieldShowMetrics:
		f.working.ShowMetrics = !f.working.ShowMetrics
	}
}

// beginEdit starts inline editing of a text row.
func (f *settingsForm) beginEdit() {
	switch f.index {
	case fieldBaseURL:
		f.input.SetValue(f.working.BaseURL)
	case fieldSystemPrompt:
		f.input.SetValue(f.working.SystemPrompt)
	default:
		return
	}
	f.editing = true
	f.input.CursorEnd()
	f.input.Focus()
}

// commitEdit stores the edited value back into the working copy and
// reports whether the endpoint changed (the model list needs refetching).
func (f *settingsForm) commitEdit() (urlChanged bool) {
	value := strings.TrimSpace(f.input.Value())
	switch f.index {
	case fieldBaseURL:
		if value != "" && value != f.working.BaseURL {
			f.working.BaseURL = value
			urlChanged = true
		}
	case fieldSystemPrompt:
		if value != "" {
			f.working.SystemPrompt = value
		}
	}
	f.editing = false
	f.input.Blur()
	return urlChanged
}

// clampPromptIndex keeps the saved prompt cursor in range.
func (f *settingsForm) clampPromptIndex() {
	if f.promptIndex >= len(f.working.SavedPrompts) {
		f.promptIndex = len(f.working.SavedPrompts) - 1
	}
	if f.promptIndex < 0 {
		f.promptIndex = 0
	}
}

// =============================================================================
// KEY HANDLING
// =============================================================================

// handleSettingsKey processes keys while the settings overlay is open.
func (m Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.settingsForm

	if f.editing {
		switch {
		case key.Matches(msg, m.keys.Cancel):
			f.editing = false
			f.input.Blur()
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			if f.commitEdit() {
				return m, fetchModelsCmd(f.working.BaseURL)
			}
			return m, nil
		}
		var cmd tea.Cmd
		f.input, cmd = f.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.overlay = overlayNone
		return m, nil

	case msg.String() == "ctrl+s":
		m.overlay = overlayNone
		cmd := m.applySettings(f.working)
		return m, cmd

	case key.Matches(msg, m.keys.Up):
		if f.index > 0 {
			f.index--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if f.index < fieldCount-1 {
			f.index++
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		switch f.index {
		case fieldBaseURL, fieldSystemPrompt:
			f.beginEdit()
		case fieldModel:
			f.cycleModel(1)
		case fieldSavedPrompts:
			f.clampPromptIndex()
			if len(f.working.SavedPrompts) > 0 {
				f.working.SystemPrompt = f.working.SavedPrompts[f.promptIndex].Prompt
			}
		default:
			f.toggle()
		}
		return m, nil

	case msg.String() == "left":
		switch f.index {
		case fieldModel:
			f.cycleModel(-1)
		case fieldSavedPrompts:
			if f.promptIndex > 0 {
				f.promptIndex--
			}
		default:
			f.toggle()
		}
		return m, nil

	case msg.String() == "right":
		switch f.index {
		case fieldModel:
			f.cycleModel(1)
		case fieldSavedPrompts:
			if f.promptIndex < len(f.working.SavedPrompts)-1 {
				f.promptIndex++
			}
		default:
			f.toggle()
		}
		return m, nil

	case msg.String() == "a" && f.index == fieldSavedPrompts:
		name := util.TruncateRunes(f.working.SystemPrompt, 24)
		f.working.SavedPrompts = append(f.working.SavedPrompts,
			model.NewSavedPrompt(name, f.working.SystemPrompt))
		f.promptIndex = len(f.working.SavedPrompts) - 1
		return m, nil

	case msg.String() == "x" && f.index == fieldSavedPrompts:
		f.clampPromptIndex()
		if len(f.working.SavedPrompts) > 0 {
			i := f.promptIndex
			f.working.SavedPrompts = append(f.working.SavedPrompts[:i], f.working.SavedPrompts[i+1:]...)
			f.clampPromptIndex()
		}
		return m, nil

	case msg.String() == "r":
		return m, fetchModelsCmd(f.working.BaseURL)
	}

	return m, nil
}

// =============================================================================
// RENDERING
// =============================================================================

// renderSettings renders the settings overlay panel.
func (m Model) renderSettings() string {
	f := &m.settingsForm

	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}

	modelValue := f.working.SelectedModel
	if len(f.models) > 1 {
		modelValue += fmt.Sprintf("  (%d available)", len(f.models))
	}

	savedValue := "none"
	if len(f.working.SavedPrompts) > 0 {
		f.clampPromptIndex()
		savedValue = fmt.Sprintf("%s  (%d/%d)",
			f.working.SavedPrompts[f.promptIndex].Name, f.promptIndex+1, len(f.working.SavedPrompts))
	}

	rows := []struct {
		field settingsField
		label string
		value string
	}{
		{fieldBaseURL, "Server URL", f.working.BaseURL},
		{fieldModel, "Model", modelValue},
		{fieldSystemPrompt, "System prompt", util.TruncateRunes(f.working.SystemPrompt, 48)},
		{fieldStream, "Streaming", onOff(f.working.StreamEnabled)},
		{fieldContextMode, "Context mode", string(f.working.ContextMode)},
		{fieldShowMetrics, "Show metrics", onOff(f.working.ShowMetrics)},
		{fieldSavedPrompts, "Saved prompts", savedValue},
	}

	var sb strings.Builder
	sb.WriteString(m.theme.PanelTitle.Render("Settings"))
	sb.WriteString("\n\n")

	for _, row := range rows {
		label := fmt.Sprintf(" %-14s ", row.label)
		if row.field == f.index {
			sb.WriteString(m.theme.FieldSelected.Render(label))
			if f.editing {
				sb.WriteString(" " + f.input.View())
			} else {
				sb.WriteString(" " + m.theme.FieldValue.Render(row.value))
			}
		} else {
			sb.WriteString(m.theme.FieldLabel.Render(label))
			sb.WriteString(" " + m.theme.FieldValue.Render(row.value))
		}
		sb.WriteString("\n")
	}

	if f.fetchErr != "" {
		sb.WriteString("\n")
		sb.WriteString(m.theme.ErrorText.Render("Model list: " + f.fetchErr))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.theme.FieldHint.Render("Enter edit/cycle  left/right change  a add prompt  x remove"))
	sb.WriteString("\n")
	sb.WriteString(m.theme.FieldHint.Render("r refresh models  C-s save  Esc discard"))
	return m.theme.Panel.Render(sb.String())
}

// applySettings persists the edited settings and applies the system
// prompt change: an empty active session gets its seed rewritten in
// place, otherwise a new session starts with the new prompt.
func (m *Model) applySettings(next model.AppSettings) tea.Cmd {
	prev := m.settings.Load()
	if err := m.settings.Save(next); err != nil {
		return m.setStatus(fmt.Sprintf("Saving settings failed: %v", err), true)
	}

	if next.SystemPrompt != prev.SystemPrompt {
		if active := m.sessions.Active(); active != nil && active.IsEmpty() {
			m.sessions.SetSystemPrompt(active.ID, next.SystemPrompt)
		} else {
			m.sessions.Create(next.SystemPrompt)
			m.sidebarIndex = 0
		}
	}
	return m.setStatus("Settings saved", false)
}
