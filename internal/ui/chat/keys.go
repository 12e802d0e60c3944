// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI.
//
// This file defines keyboard bindings for the chat interface.
package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat interface.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Submit    key.Binding
	NewLine   key.Binding
	Cancel    key.Binding
	Quit      key.Binding
	Focus     key.Binding
	NewChat   key.Binding
	EditLast  key.Binding
	Settings  key.Binding
	Documents key.Binding
	Export    key.Binding
	Help      key.Binding
	Delete    key.Binding
}

// DefaultKeyMap returns the default key bindings for the chat interface.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "previous session"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "next session"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll transcript up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll transcript down"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send message"),
		),
		NewLine: key.NewBinding(
			key.WithKeys("ctrl+j"),
			key.WithHelp("C-j", "insert newline"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "stop generation / close"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-c", "quit"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "switch focus"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new chat"),
		),
		EditLast: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "edit last message"),
		),
		Settings: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("C-g", "settings"),
		),
		Documents: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("C-o", "documents"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "export chat"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "help"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete session"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Cancel, k.NewChat, k.Settings, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the help overlay, grouped.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Focus},
		{k.Submit, k.NewLine, k.Cancel, k.EditLast},
		{k.NewChat, k.Delete, k.Export},
		{k.Settings, k.Documents, k.Help, k.Quit},
	}
}
