// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the main chat view for the llamachat TUI.

The package implements a complete terminal chat interface on the Bubble
Tea framework: a session sidebar, a scrolling transcript viewport, a
multi-line input box, and overlay panels for settings, documents, and
keyboard help.

# Key Components

## Model (model.go)

The Model struct is the central Bubble Tea model. It owns the viewport,
textarea, and spinner components and reads all conversation state from
the session store. The store is the single source of truth; the UI never
keeps its own copy of the transcript.

## Update Loop (update.go)

Handles keyboard input, window resizing, and the application messages
produced by commands. Completion requests run inside tea.Cmd goroutines
through the orchestrator; store notifications and orchestrator state
changes arrive as StoreChangedMsg and PhaseMsg sent from outside the
program loop.

## View Rendering (view.go)

Renders the header, sidebar, transcript (user bubbles right-aligned,
assistant responses through the markdown renderer, system notices in
amber), the input box, and the status bar. Per-message metrics lines are
shown when enabled in settings.

## Overlays (settings.go, documents.go)

The settings panel edits a working copy of AppSettings: endpoint, model
(picked from the live model list), system prompt, streaming, context
mode, metrics display, and saved prompts. The documents panel lists
ingested documents with previews and supports deletion.

# Usage

	m := chat.New(chat.Options{...})
	p := tea.NewProgram(m, tea.WithAltScreen())
	sessions.Subscribe(func() { p.Send(chat.StoreChangedMsg{}) })
	orch.OnStateChange(func(s core.State) { p.Send(chat.PhaseMsg{Phase: s}) })
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
*/
package chat
