// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
//
// This package defines the core domain types used throughout the application
// for representing chat sessions, their transcripts, and the settings that
// govern how completions are requested.
//
// # Key Types
//
//   - Session: One conversation thread with its own transcript and title
//   - Message: Single message with role, content, and optional metrics
//   - MessageMetrics: Usage/timing metadata attached to assistant messages
//   - AppSettings: Persisted application settings with forward-compatible
//     JSON decoding
//
// # Usage
//
// Create a new session seeded with a system prompt:
//
//	sess := model.NewSession("You are a helpful assistant.")
//	sess.Messages = append(sess.Messages, model.NewUserMessage("Hello!"))
package model
