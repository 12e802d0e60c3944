// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

// =============================================================================
// ORCHESTRATOR STATE
// =============================================================================

// State describes where the orchestrator is in a message exchange.
type State int

const (
	// StateIdle means no exchange is in flight.
	StateIdle State = iota

	// StateSending means the user message is published and the request
	// is being prepared or is on the wire.
	StateSending

	// StateStreaming means deltas are arriving.
	StateStreaming

	// StateAwaitingFullResponse means a non-streaming request is pending.
	StateAwaitingFullResponse

	// StateFinalizing means the response is complete and metrics or the
	// session title are being settled.
	StateFinalizing

	// StateAborted means the user canceled a streaming exchange; the
	// partial response stays in the transcript.
	StateAborted
)

// String returns a short name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateAwaitingFullResponse:
		return "awaiting"
	case StateFinalizing:
		return "finalizing"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Busy reports whether an exchange is in flight. The UI uses this to
// gate the input box; the orchestrator also rejects re-entrant sends.
func (s State) Busy() bool {
	return s == StateSending || s == StateStreaming || s == StateAwaitingFullResponse || s == StateFinalizing
}
