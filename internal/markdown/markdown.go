// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown renders assistant responses for terminal display.
package markdown

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// Renderer renders markdown to styled terminal text. Falls back to plain
// text when the terminal renderer cannot be initialized.
type Renderer struct {
	mu    sync.Mutex
	width int
	tr    *glamour.TermRenderer
}

// NewRenderer creates a renderer wrapping at width columns.
func NewRenderer(width int) *Renderer {
	r := &Renderer{width: width}
	r.tr = newTermRenderer(width)
	return r
}

func newTermRenderer(width int) *glamour.TermRenderer {
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return tr
}

// SetWidth rebuilds the renderer for a new wrap width. Called on terminal
// resize.
func (r *Renderer) SetWidth(width int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if width == r.width {
		return
	}
	r.width = width
	r.tr = newTermRenderer(width)
}

// Render returns styled terminal text for the given markdown. Rendering
// failures degrade to the raw input rather than erroring; a chat message
// must always display something.
func (r *Renderer) Render(content string) string {
	r.mu.Lock()
	tr := r.tr
	r.mu.Unlock()

	if tr == nil {
		return content
	}
	out, err := tr.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}
