// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// THEME
// =============================================================================

// Theme bundles the pre-built styles used across the chat interface.
// Build one with NewTheme and share it; styles are immutable values.
type Theme struct {
	// Terminal capabilities, detected at startup.
	IsDark       bool
	ColorProfile termenv.Profile

	// Header bar
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderInfo  lipgloss.Style

	// Sidebar session list
	Sidebar         lipgloss.Style
	SidebarFocused  lipgloss.Style
	SidebarHeading  lipgloss.Style
	SidebarItem     lipgloss.Style
	SidebarActive   lipgloss.Style
	SidebarSelected lipgloss.Style

	// Message rendering
	UserBubble      lipgloss.Style
	AssistantLabel  lipgloss.Style
	AssistantBody   lipgloss.Style
	SystemBubble    lipgloss.Style
	MetricsLine     lipgloss.Style
	StreamingCursor lipgloss.Style

	// Input area
	InputBox        lipgloss.Style
	InputBoxFocused lipgloss.Style
	InputEditTag    lipgloss.Style

	// Status bar
	StatusBar  lipgloss.Style
	StatusKey  lipgloss.Style
	StatusText lipgloss.Style
	StatusErr  lipgloss.Style

	// Overlay panels (settings, documents, help)
	Panel         lipgloss.Style
	PanelTitle    lipgloss.Style
	FieldLabel    lipgloss.Style
	FieldValue    lipgloss.Style
	FieldSelected lipgloss.Style
	FieldHint     lipgloss.Style
	ErrorText     lipgloss.Style
	EmptyState    lipgloss.Style
}

// NewTheme builds the default theme.
func NewTheme() *Theme {
	return &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),

		Header: lipgloss.NewStyle().
			Background(SurfaceDim).
			Padding(0, 1),
		HeaderTitle: lipgloss.NewStyle().
			Foreground(Cyan).
			Bold(true),
		HeaderInfo: lipgloss.NewStyle().
			Foreground(TextSecondary),

		Sidebar: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(Overlay).
			PaddingRight(1),
		SidebarFocused: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(FocusRing).
			PaddingRight(1),
		SidebarHeading: lipgloss.NewStyle().
			Foreground(TextMuted).
			Bold(true),
		SidebarItem: lipgloss.NewStyle().
			Foreground(TextSecondary),
		SidebarActive: lipgloss.NewStyle().
			Foreground(TextPrimary).
			Bold(true),
		SidebarSelected: lipgloss.NewStyle().
			Foreground(TextPrimary).
			Background(SelectionBg).
			Bold(true),

		UserBubble: lipgloss.NewStyle().
			Foreground(UserBubbleFg).
			Background(UserBubbleBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(UserBubbleBorder).
			Padding(0, 1),
		AssistantLabel: lipgloss.NewStyle().
			Foreground(Purple).
			Bold(true),
		AssistantBody: lipgloss.NewStyle().
			Foreground(TextPrimary),
		SystemBubble: lipgloss.NewStyle().
			Foreground(SystemBubbleFg).
			Background(SystemBubbleBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(SystemBubbleBorder).
			Padding(0, 1),
		MetricsLine: lipgloss.NewStyle().
			Foreground(TextMuted),
		StreamingCursor: lipgloss.NewStyle().
			Foreground(Purple).
			Blink(true),

		InputBox: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Overlay).
			Padding(0, 1),
		InputBoxFocused: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(FocusRing).
			Padding(0, 1),
		InputEditTag: lipgloss.NewStyle().
			Foreground(Amber).
			Bold(true),

		StatusBar: lipgloss.NewStyle().
			Background(SurfaceDim).
			Foreground(TextSecondary).
			Padding(0, 1),
		StatusKey: lipgloss.NewStyle().
			Foreground(Cyan),
		StatusText: lipgloss.NewStyle().
			Foreground(TextSecondary),
		StatusErr: lipgloss.NewStyle().
			Foreground(Rose).
			Bold(true),

		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Purple).
			Padding(1, 2),
		PanelTitle: lipgloss.NewStyle().
			Foreground(Purple).
			Bold(true),
		FieldLabel: lipgloss.NewStyle().
			Foreground(TextSecondary),
		FieldValue: lipgloss.NewStyle().
			Foreground(TextPrimary),
		FieldSelected: lipgloss.NewStyle().
			Foreground(TextPrimary).
			Background(SelectionBg).
			Bold(true),
		FieldHint: lipgloss.NewStyle().
			Foreground(TextMuted),
		ErrorText: lipgloss.NewStyle().
			Foreground(Rose),
		EmptyState: lipgloss.NewStyle().
			Foreground(TextMuted).
			Italic(true),
	}
}
