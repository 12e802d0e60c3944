// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	core "github.com/jeranaias/llamachat-tui/internal/chat"
	"github.com/jeranaias/llamachat-tui/internal/model"
)

// Update handles all Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		if !m.phase.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case StoreChangedMsg:
		m.clampSidebar()
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, nil

	case PhaseMsg:
		wasBusy := m.phase.Busy()
		m.phase = msg.Phase
		if m.phase.Busy() && !wasBusy {
			return m, m.spin.Tick
		}
		return m, nil

	case sendResultMsg:
		if msg.Err != nil {
			cmd := m.setStatus(sendErrorText(msg.Err), true)
			return m, cmd
		}
		return m, nil

	case modelsResultMsg:
		m.settingsForm.applyModels(msg.Models, msg.Err)
		return m, nil

	case exportResultMsg:
		if msg.Err != nil {
			cmd := m.setStatus(fmt.Sprintf("Export failed: %v", msg.Err), true)
			return m, cmd
		}
		cmd := m.setStatus(fmt.Sprintf("Exported to %s", msg.Path), false)
		return m, cmd

	case statusClearMsg:
		if msg.Seq == m.statusSeq {
			m.statusMsg = ""
			m.statusErr = false
		}
		return m, nil
	}

	return m, nil
}

// sendErrorText maps orchestrator errors to short status messages.
func sendErrorText(err error) string {
	switch err {
	case core.ErrBusy:
		return "A response is already in flight"
	case core.ErrEmptyInput:
		return "Nothing to send"
	case core.ErrNoSession:
		return "No active session"
	case core.ErrNotEditable:
		return "Only your own messages can be edited"
	default:
		return err.Error()
	}
}

// =============================================================================
// LAYOUT
// =============================================================================

// resize recomputes component dimensions for a new terminal size.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.ready = true

	chatWidth := width - sidebarWidth - 1
	if chatWidth < minChatWidth {
		chatWidth = minChatWidth
	}

	// header + input box + status bar
	vpHeight := height - 1 - inputHeight - 1
	if vpHeight < 3 {
		vpHeight = 3
	}

	m.viewport.Width = chatWidth
	m.viewport.Height = vpHeight
	m.input.SetWidth(chatWidth - 4)
	m.renderer.SetWidth(chatWidth - 6)
	m.settingsForm.setWidth(width)
}

// clampSidebar keeps the sidebar cursor inside the session list.
func (m *Model) clampSidebar() {
	count := m.sessions.Count()
	if count == 0 {
		m.sidebarIndex = 0
		return
	}
	if m.sidebarIndex >= count {
		m.sidebarIndex = count - 1
	}
	if m.sidebarIndex < 0 {
		m.sidebarIndex = 0
	}
}

// refreshTranscript re-renders the active session into the viewport.
func (m *Model) refreshTranscript() {
	m.viewport.SetContent(m.renderTranscript())
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch m.overlay {
	case overlayHelp:
		if key.Matches(msg, m.keys.Cancel) || key.Matches(msg, m.keys.Help) {
			m.overlay = overlayNone
		}
		return m, nil
	case overlaySettings:
		return m.handleSettingsKey(msg)
	case overlayDocuments:
		return m.handleDocumentsKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		if m.phase.Busy() {
			m.orch.Cancel()
			cmd := m.setStatus("Stopping generation...", false)
			return m, cmd
		}
		if m.editIndex != noEditPending {
			m.editIndex = noEditPending
			m.input.Reset()
			return m, nil
		}
		if m.focus == focusSidebar {
			m.setFocus(focusInput)
		}
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.overlay = overlayHelp
		return m, nil

	case key.Matches(msg, m.keys.Settings):
		m.settingsForm.open(m.settings.Load())
		m.overlay = overlaySettings
		return m, fetchModelsCmd(m.settingsForm.working.BaseURL)

	case key.Matches(msg, m.keys.Documents):
		m.docsList.open()
		m.overlay = overlayDocuments
		return m, nil

	case key.Matches(msg, m.keys.Export):
		active := m.sessions.Active()
		if active == nil {
			return m, nil
		}
		return m, exportCmd(m.sessions, active.ID, m.exportDir, "markdown")

	case key.Matches(msg, m.keys.NewChat):
		m.sessions.Create(m.activeSystemPrompt())
		m.sidebarIndex = 0
		m.setFocus(focusInput)
		return m, nil

	case key.Matches(msg, m.keys.EditLast):
		return m.beginEditLast()

	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusInput {
			m.setFocus(focusSidebar)
		} else {
			m.setFocus(focusInput)
		}
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

// setFocus moves keyboard focus between the input box and the sidebar.
func (m *Model) setFocus(f focusArea) {
	m.focus = f
	if f == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

// beginEditLast loads the most recent user message into the input box
// for editing. Submitting it branches the conversation at that point.
func (m Model) beginEditLast() (tea.Model, tea.Cmd) {
	if m.phase.Busy() {
		cmd := m.setStatus("Wait for the current response to finish", true)
		return m, cmd
	}
	active := m.sessions.Active()
	if active == nil {
		return m, nil
	}
	for i := len(active.Messages) - 1; i >= 0; i-- {
		if active.Messages[i].Role == model.RoleUser {
			m.editIndex = i
			m.input.SetValue(active.Messages[i].Content)
			m.input.CursorEnd()
			m.setFocus(focusInput)
			return m, nil
		}
	}
	cmd := m.setStatus("No message to edit", true)
	return m, cmd
}

// handleSidebarKey handles keys while the session list has focus.
func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.sidebarIndex > 0 {
			m.sidebarIndex--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.sidebarIndex < m.sessions.Count()-1 {
			m.sidebarIndex++
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		m.selectSession()
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		list := m.sessions.Sessions()
		if m.sidebarIndex < len(list) {
			m.sessions.Delete(list[m.sidebarIndex].ID, m.activeSystemPrompt())
			m.clampSidebar()
		}
		return m, nil

	case msg.String() == "n":
		m.sessions.Create(m.activeSystemPrompt())
		m.sidebarIndex = 0
		m.setFocus(focusInput)
		return m, nil
	}
	return m, nil
}

// selectSession activates the session under the sidebar cursor. An empty
// session being switched away from is discarded instead of lingering in
// the list.
func (m *Model) selectSession() {
	list := m.sessions.Sessions()
	if m.sidebarIndex >= len(list) {
		return
	}
	target := list[m.sidebarIndex]

	if prev := m.sessions.Active(); prev != nil && prev.ID != target.ID && prev.IsEmpty() {
		m.sessions.Delete(prev.ID, m.activeSystemPrompt())
	}
	m.sessions.Select(target.ID)
	m.clampSidebar()
	m.editIndex = noEditPending
	m.setFocus(focusInput)
}

// handleInputKey handles keys while the input box has focus.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input box contents, either as a fresh message or as
// an edit branching the transcript.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	if m.phase.Busy() {
		cmd := m.setStatus("A response is already in flight", true)
		return m, cmd
	}

	m.input.Reset()

	if m.editIndex != noEditPending {
		idx := m.editIndex
		m.editIndex = noEditPending
		return m, tea.Batch(editCmd(m.orch, idx, text), m.spin.Tick)
	}
	return m, tea.Batch(sendCmd(m.orch, text), m.spin.Tick)
}
