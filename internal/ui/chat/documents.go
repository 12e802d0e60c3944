// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI.
//
// This file implements the documents overlay: a list of ingested
// documents with a preview pane. Documents are added by dropping files
// into the watched documents directory; here they can be inspected and
// deleted, and their IDs copied into @-mentions.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/llamachat-tui/internal/util"
)

// documentsView holds the state of the documents overlay.
type documentsView struct {
	index int
}

func (d *documentsView) open() {
	d.index = 0
}

func (d *documentsView) clamp(count int) {
	if d.index >= count {
		d.index = count - 1
	}
	if d.index < 0 {
		d.index = 0
	}
}

// handleDocumentsKey processes keys while the documents overlay is open.
func (m Model) handleDocumentsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := m.docs.List()
	m.docsList.clamp(len(list))

	switch {
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Documents):
		m.overlay = overlayNone
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.docsList.index > 0 {
			m.docsList.index--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.docsList.index < len(list)-1 {
			m.docsList.index++
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if m.docsList.index < len(list) {
			doc := list[m.docsList.index]
			if err := m.docs.Remove(doc.ID); err != nil {
				cmd := m.setStatus(fmt.Sprintf("Delete failed: %v", err), true)
				return m, cmd
			}
			m.docsList.clamp(len(list) - 1)
			cmd := m.setStatus(fmt.Sprintf("Deleted %s", doc.Name), false)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

// renderDocuments renders the documents overlay panel.
func (m Model) renderDocuments() string {
	list := m.docs.List()

	var sb strings.Builder
	sb.WriteString(m.theme.PanelTitle.Render("Documents"))
	sb.WriteString("\n\n")

	if len(list) == 0 {
		sb.WriteString(m.theme.EmptyState.Render("No documents ingested yet."))
		sb.WriteString("\n")
		sb.WriteString(m.theme.FieldHint.Render("Drop .txt or .md files into the documents directory."))
		return m.theme.Panel.Render(sb.String())
	}

	for i, doc := range list {
		line := fmt.Sprintf("%-30s %-8s %3d chunks %6d tokens",
			util.TruncateRunes(doc.Name, 30), doc.Type, len(doc.Chunks), doc.Tokens)
		if i == m.docsList.index {
			sb.WriteString(m.theme.FieldSelected.Render(line))
		} else {
			sb.WriteString(m.theme.FieldValue.Render(line))
		}
		sb.WriteString("\n")
	}

	if m.docsList.index < len(list) {
		doc := list[m.docsList.index]
		sb.WriteString("\n")
		sb.WriteString(m.theme.FieldLabel.Render("Mention: "))
		sb.WriteString(m.theme.FieldValue.Render("@" + doc.ID))
		sb.WriteString("\n\n")
		sb.WriteString(m.theme.FieldHint.Render(util.TruncateRunes(doc.Content, previewRunes)))
	}

	sb.WriteString("\n\n")
	sb.WriteString(m.theme.FieldHint.Render("up/down select  d delete  Esc close"))
	return m.theme.Panel.Render(sb.String())
}
