// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI.
//
// This file defines the Bubble Tea message types used by the chat
// interface. StoreChangedMsg and PhaseMsg are exported because they are
// sent into the program from outside the update loop (store subscription
// and orchestrator state callback); the rest are produced by commands.
package chat

import (
	core "github.com/jeranaias/llamachat-tui/internal/chat"
)

// =============================================================================
// EXTERNAL MESSAGES
// =============================================================================

// StoreChangedMsg signals that the session store mutated and the
// transcript or sidebar may need re-rendering.
type StoreChangedMsg struct{}

// PhaseMsg delivers an orchestrator state change.
type PhaseMsg struct {
	Phase core.State
}

// =============================================================================
// COMMAND RESULTS
// =============================================================================

// sendResultMsg reports the outcome of a send or edit command.
type sendResultMsg struct {
	Err error
}

// modelsResultMsg delivers the fetched model list for the settings panel.
type modelsResultMsg struct {
	Models []string
	Err    error
}

// exportResultMsg reports the outcome of a session export.
type exportResultMsg struct {
	Path string
	Err  error
}

// statusClearMsg expires a transient status bar message. Seq guards
// against clearing a newer message than the one that scheduled it.
type statusClearMsg struct {
	Seq int
}
