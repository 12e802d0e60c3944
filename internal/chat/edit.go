// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "errors"

// ErrNotEditable indicates the message at the given index cannot be
// edited. Only user messages are edit targets.
var ErrNotEditable = errors.New("message is not editable")

// EditAt rewrites the user message at index in the active session and
// resends it. Everything after the edited message is discarded; the
// conversation branches from that point and the old branch is gone. The
// transcript is published in a single step with the edited message in
// place, so it never momentarily ends before the edit point.
//
// Like Send, EditAt blocks until the new exchange completes.
func (o *Orchestrator) EditAt(index int, content string) error {
	if index < 0 {
		return ErrNotEditable
	}
	return o.exchange(content, index)
}
