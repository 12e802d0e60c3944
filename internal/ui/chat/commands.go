// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI.
//
// This file defines the tea.Cmd constructors. Commands run in their own
// goroutines, so the blocking orchestrator calls live here.
package chat

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	core "github.com/jeranaias/llamachat-tui/internal/chat"
	"github.com/jeranaias/llamachat-tui/internal/llm"
	"github.com/jeranaias/llamachat-tui/internal/store"
	"github.com/jeranaias/llamachat-tui/internal/util"
)

// statusDuration is how long transient status messages stay visible.
const statusDuration = 4 * time.Second

// sendCmd runs a full message exchange through the orchestrator. The
// call blocks until the exchange settles; progress reaches the UI via
// store notifications and orchestrator state changes.
func sendCmd(orch *core.Orchestrator, text string) tea.Cmd {
	return func() tea.Msg {
		return sendResultMsg{Err: orch.Send(text)}
	}
}

// editCmd truncates the transcript at index and resends the edited
// message, branching the conversation.
func editCmd(orch *core.Orchestrator, index int, text string) tea.Cmd {
	return func() tea.Msg {
		return sendResultMsg{Err: orch.EditAt(index, text)}
	}
}

// fetchModelsCmd lists the models the server offers.
func fetchModelsCmd(baseURL string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		models, err := llm.NewClient(baseURL).ListModels(ctx)
		return modelsResultMsg{Models: models, Err: err}
	}
}

// exportCmd writes the session transcript to a file in dir.
func exportCmd(sessions *store.SessionStore, id, dir, format string) tea.Cmd {
	return func() tea.Msg {
		data, err := sessions.Export(id, format)
		if err != nil {
			return exportResultMsg{Err: err}
		}

		sess := sessions.Get(id)
		if sess == nil {
			return exportResultMsg{Err: fmt.Errorf("session %s not found", id)}
		}

		ext := "md"
		if format == "json" {
			ext = "json"
		}
		name := fmt.Sprintf("%s-%s.%s", exportSlug(sess.Title), time.Now().Format("20060102-150405"), ext)
		path := filepath.Join(dir, name)

		if err := util.AtomicWriteFile(path, data, 0644); err != nil {
			return exportResultMsg{Err: err}
		}
		return exportResultMsg{Path: path}
	}
}

// exportSlug turns a session title into a safe filename fragment.
func exportSlug(title string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, title)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "chat"
	}
	if r := []rune(slug); len(r) > 40 {
		slug = string(r[:40])
	}
	return slug
}

// clearStatusCmd schedules the expiry of the current status message.
func clearStatusCmd(seq int) tea.Cmd {
	return tea.Tick(statusDuration, func(time.Time) tea.Msg {
		return statusClearMsg{Seq: seq}
	})
}
