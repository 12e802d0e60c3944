// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the llamachat TUI.
//
// All colors use Lip Gloss AdaptiveColor so the interface works on both
// light and dark terminals without configuration. The Theme type bundles
// the pre-built lipgloss styles the chat view renders with.
package styles
