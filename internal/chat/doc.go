// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat orchestrates completion requests against the session store.
//
// The Orchestrator owns the lifecycle of one message exchange: it appends
// the user message optimistically, runs the request (streaming or not),
// folds deltas into the transcript as they arrive, attaches metrics, and
// kicks off title derivation for fresh sessions. Transport failures are
// turned into system messages in the transcript rather than surfaced as
// errors; the conversation is the error channel the user actually reads.
//
// Send blocks for the duration of the exchange and is designed to be run
// from a tea.Cmd goroutine. Cancel is safe to call from any goroutine.
package chat
