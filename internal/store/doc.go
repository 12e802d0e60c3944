// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides persistence for sessions and settings.
//
// Persistence is a key-value layer over SQLite: the full session
// collection is stored as one JSON value, settings as another. Writes are
// best effort; a failed save is logged and the in-memory state stays
// authoritative for the rest of the run.
//
// SessionStore is the in-memory source of truth for the session list and
// the active selection. Mutations publish to subscribers, and all
// accessors return deep copies so callers never alias live state.
package store
