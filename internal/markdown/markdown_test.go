// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"strings"
	"testing"
)

func TestRenderNeverReturnsEmpty(t *testing.T) {
	r := NewRenderer(80)

	out := r.Render("# Heading\n\nSome *emphasis* and `code`.")
	if strings.TrimSpace(out) == "" {
		t.Error("rendered output should not be empty")
	}
}

func TestRenderPlainTextSurvives(t *testing.T) {
	r := NewRenderer(80)

	out := r.Render("just plain words")
	if !strings.Contains(out, "just plain words") {
		t.Errorf("plain text lost in rendering: %q", out)
	}
}

func TestSetWidth(t *testing.T) {
	r := NewRenderer(80)
	r.SetWidth(40)
	// Must still render after a rebuild.
	if strings.TrimSpace(r.Render("hello")) == "" {
		t.Error("renderer broken after width change")
	}
}
