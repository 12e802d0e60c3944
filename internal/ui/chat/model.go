// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	core "github.com/jeranaias/llamachat-tui/internal/chat"
	"github.com/jeranaias/llamachat-tui/internal/docs"
	"github.com/jeranaias/llamachat-tui/internal/markdown"
	"github.com/jeranaias/llamachat-tui/internal/store"
	"github.com/jeranaias/llamachat-tui/internal/ui/styles"
)

// =============================================================================
// FOCUS AND OVERLAYS
// =============================================================================

// focusArea identifies which pane has keyboard focus.
type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// overlayKind identifies which overlay panel, if any, is open.
type overlayKind int

const (
	overlayNone overlayKind = iota
	overlaySettings
	overlayDocuments
	overlayHelp
)

// Layout constants.
const (
	sidebarWidth  = 26
	inputHeight   = 3
	minChatWidth  = 20
	noEditPending = -1
	previewRunes  = 300
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options carries the collaborators the chat model needs.
type Options struct {
	Theme     *styles.Theme
	Sessions  *store.SessionStore
	Settings  *store.SettingsStore
	Docs      *docs.Service
	Orch      *core.Orchestrator
	Renderer  *markdown.Renderer
	ExportDir string
}

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	theme     *styles.Theme
	sessions  *store.SessionStore
	settings  *store.SettingsStore
	docs      *docs.Service
	orch      *core.Orchestrator
	renderer  *markdown.Renderer
	exportDir string

	// Dimensions
	width  int
	height int
	ready  bool

	// Components
	viewport viewport.Model
	input    textarea.Model
	spin     spinner.Model
	keys     KeyMap

	// Interaction state
	focus        focusArea
	overlay      overlayKind
	phase        core.State
	sidebarIndex int

	// Edit mode: index into the active transcript of the user message
	// being edited, or noEditPending.
	editIndex int

	// Overlay state
	settingsForm settingsForm
	docsList     documentsView

	// Transient status line
	statusMsg string
	statusErr bool
	statusSeq int
}

// New creates the chat model.
func New(opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Type a message... (@<doc-id> to attach a document)"
	ta.Prompt = "  "
	ta.CharLimit = 8192
	ta.SetHeight(inputHeight - 2)
	ta.ShowLineNumbers = false
	// Enter submits; newline moves to ctrl+j.
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("ctrl+j"))
	ta.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = opts.Theme.HeaderInfo

	return Model{
		theme:     opts.Theme,
		sessions:  opts.Sessions,
		settings:  opts.Settings,
		docs:      opts.Docs,
		orch:      opts.Orch,
		renderer:  opts.Renderer,
		exportDir: opts.ExportDir,
		viewport:  vp,
		input:     ta,
		spin:      sp,
		keys:      DefaultKeyMap(),
		focus:     focusInput,
		overlay:   overlayNone,
		phase:     core.StateIdle,
		editIndex: noEditPending,
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Phase returns the orchestrator phase the UI last observed.
func (m Model) Phase() core.State {
	return m.phase
}

// setStatus installs a transient status message and returns the command
// that expires it.
func (m *Model) setStatus(msg string, isErr bool) tea.Cmd {
	m.statusMsg = msg
	m.statusErr = isErr
	m.statusSeq++
	return clearStatusCmd(m.statusSeq)
}

// activeSystemPrompt returns the system prompt new sessions should carry.
func (m *Model) activeSystemPrompt() string {
	return m.settings.Load().SystemPrompt
}
