// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	core "github.com/jeranaias/llamachat-tui/internal/chat"
	"github.com/jeranaias/llamachat-tui/internal/model"
	"github.com/jeranaias/llamachat-tui/internal/util"
)

// View renders the complete interface.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.renderHeader()
	status := m.renderStatusBar()

	var body string
	switch m.overlay {
	case overlaySettings:
		body = m.centerOverlay(m.renderSettings())
	case overlayDocuments:
		body = m.centerOverlay(m.renderDocuments())
	case overlayHelp:
		body = m.centerOverlay(m.renderHelp())
	default:
		sidebar := m.renderSidebar()
		chat := lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), m.renderInput())
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, chat)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, status)
}

// centerOverlay places a panel in the middle of the body area.
func (m Model) centerOverlay(panel string) string {
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, panel)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	title := "llamachat"
	if active := m.sessions.Active(); active != nil {
		title = active.Title
	}

	left := m.theme.HeaderTitle.Render(util.TruncateRunes(title, 48))

	prefs := m.settings.Load()
	info := prefs.SelectedModel
	if m.phase.Busy() {
		info = fmt.Sprintf("%s %s %s", info, m.spin.View(), m.phase)
	}
	right := m.theme.HeaderInfo.Render(info)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m Model) renderSidebar() string {
	var sb strings.Builder
	sb.WriteString(m.theme.SidebarHeading.Render("Sessions"))
	sb.WriteString("\n")

	list := m.sessions.Sessions()
	activeID := m.sessions.ActiveID()
	maxTitle := sidebarWidth - 4

	for i, sess := range list {
		marker := "  "
		if sess.ID == activeID {
			marker = "* "
		}
		line := marker + util.TruncateRunes(sess.Title, maxTitle)

		switch {
		case m.focus == focusSidebar && i == m.sidebarIndex:
			line = m.theme.SidebarSelected.Render(line)
		case sess.ID == activeID:
			line = m.theme.SidebarActive.Render(line)
		default:
			line = m.theme.SidebarItem.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	style := m.theme.Sidebar
	if m.focus == focusSidebar {
		style = m.theme.SidebarFocused
	}
	return style.Width(sidebarWidth).Height(m.viewport.Height + inputHeight).Render(sb.String())
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderTranscript renders the active session's messages for the
// viewport. The leading system seed is hidden; system messages appended
// later (transport errors) are shown as amber notices.
func (m Model) renderTranscript() string {
	active := m.sessions.Active()
	if active == nil {
		return ""
	}

	var parts []string
	for i, msg := range active.Messages {
		if i == 0 && msg.Role == model.RoleSystem {
			continue
		}
		last := i == len(active.Messages)-1
		switch msg.Role {
		case model.RoleUser:
			parts = append(parts, m.renderUserMessage(msg))
		case model.RoleAssistant:
			parts = append(parts, m.renderAssistantMessage(msg, last))
		case model.RoleSystem:
			parts = append(parts, m.renderSystemMessage(msg))
		}
	}

	if len(parts) == 0 {
		return m.renderEmptyState()
	}
	return strings.Join(parts, "\n")
}

func (m Model) renderEmptyState() string {
	text := "Start the conversation below.\n\n" +
		"Tab switches to the session list, C-g opens settings,\n" +
		"C-o shows ingested documents, F1 lists all keys."
	return lipgloss.NewStyle().
		MarginTop(2).
		MarginLeft(2).
		Render(m.theme.EmptyState.Render(text))
}

// renderUserMessage renders a right-aligned user bubble.
func (m Model) renderUserMessage(msg model.Message) string {
	maxWidth := m.viewport.Width - 8
	if maxWidth < 10 {
		maxWidth = 10
	}

	rendered := m.theme.UserBubble.MaxWidth(maxWidth).Render(msg.Content)

	marginLeft := m.viewport.Width - lipgloss.Width(rendered) - 2
	if marginLeft < 0 {
		marginLeft = 0
	}
	return lipgloss.NewStyle().
		MarginLeft(marginLeft).
		MarginTop(1).
		Render(rendered)
}

// renderAssistantMessage renders an assistant response through the
// markdown renderer, with a streaming cursor on the in-flight message
// and an optional metrics line underneath.
func (m Model) renderAssistantMessage(msg model.Message, last bool) string {
	streaming := last && m.phase == core.StateStreaming

	content := msg.Content
	if streaming && content == "" {
		content = "_"
	}

	body := m.renderer.Render(content)
	if streaming && msg.Content != "" {
		body += m.theme.StreamingCursor.Render("_")
	}

	out := m.theme.AssistantLabel.Render(model.RoleAssistant.DisplayName()) + "\n" + body

	if !streaming && m.settings.Load().ShowMetrics && msg.Metrics != nil && !msg.Metrics.IsEmpty() {
		out += "\n" + m.theme.MetricsLine.Render(msg.Metrics.FormatLine())
	}

	return lipgloss.NewStyle().
		MarginTop(1).
		MarginLeft(2).
		Render(out)
}

// renderSystemMessage renders a system notice (transport errors).
func (m Model) renderSystemMessage(msg model.Message) string {
	maxWidth := m.viewport.Width - 8
	if maxWidth < 10 {
		maxWidth = 10
	}
	return lipgloss.NewStyle().
		MarginTop(1).
		MarginLeft(2).
		Render(m.theme.SystemBubble.MaxWidth(maxWidth).Render(msg.Content))
}

// =============================================================================
// INPUT
// =============================================================================

func (m Model) renderInput() string {
	style := m.theme.InputBox
	if m.focus == focusInput {
		style = m.theme.InputBoxFocused
	}

	view := m.input.View()
	if m.editIndex != noEditPending {
		view = m.theme.InputEditTag.Render("[editing]") + " " + view
	}
	return style.Width(m.viewport.Width - 2).Render(view)
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.statusMsg != "" && m.statusErr:
		left = m.theme.StatusErr.Render(m.statusMsg)
	case m.statusMsg != "":
		left = m.theme.StatusText.Render(m.statusMsg)
	default:
		prefs := m.settings.Load()
		stream := "off"
		if prefs.StreamEnabled {
			stream = "on"
		}
		metrics := "off"
		if prefs.ShowMetrics {
			metrics = "on"
		}
		left = m.theme.StatusText.Render(fmt.Sprintf("ctx:%s  stream:%s  metrics:%s  docs:%d",
			prefs.ContextMode, stream, metrics, m.docs.Count()))
	}

	right := m.theme.StatusKey.Render("Tab") + m.theme.StatusText.Render(" focus  ") +
		m.theme.StatusKey.Render("C-n") + m.theme.StatusText.Render(" new  ") +
		m.theme.StatusKey.Render("F1") + m.theme.StatusText.Render(" help")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// HELP OVERLAY
// =============================================================================

func (m Model) renderHelp() string {
	var sb strings.Builder
	sb.WriteString(m.theme.PanelTitle.Render("Keyboard Shortcuts"))
	sb.WriteString("\n\n")

	for _, group := range m.keys.FullHelp() {
		for _, binding := range group {
			help := binding.Help()
			sb.WriteString(fmt.Sprintf("%s  %s\n",
				m.theme.FieldSelected.Render(fmt.Sprintf(" %-10s ", help.Key)),
				m.theme.FieldValue.Render(help.Desc)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(m.theme.FieldHint.Render("Esc or F1 to close"))
	return m.theme.Panel.Render(sb.String())
}
