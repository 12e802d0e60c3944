// llamachat - a terminal chat interface for local OpenAI-compatible LLM servers.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	core "github.com/jeranaias/llamachat-tui/internal/chat"
	"github.com/jeranaias/llamachat-tui/internal/config"
	"github.com/jeranaias/llamachat-tui/internal/docs"
	"github.com/jeranaias/llamachat-tui/internal/markdown"
	"github.com/jeranaias/llamachat-tui/internal/model"
	"github.com/jeranaias/llamachat-tui/internal/store"
	uichat "github.com/jeranaias/llamachat-tui/internal/ui/chat"
	"github.com/jeranaias/llamachat-tui/internal/ui/styles"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating data directory: %v\n", err)
		os.Exit(1)
	}

	// The terminal owns stdout; diagnostics go to a file.
	if logFile, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600); err == nil {
		log.SetOutput(logFile)
		defer logFile.Close()
	}

	kv, err := store.OpenKV(cfg.DatabasePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer kv.Close()

	settings := store.NewSettingsStore(kv)
	prefs := bootstrapSettings(settings, cfg)

	sessions := store.NewSessionStore(kv, prefs.SystemPrompt)
	docSvc := docs.NewService(kv)
	orch := core.New(sessions, settings, docs.NewBuilder(docSvc))

	if cfg.WatchDocuments {
		watcher, err := docs.NewWatcher(docSvc, cfg.DocumentsDir())
		if err != nil {
			log.Printf("document watcher unavailable: %v", err)
		} else if err := watcher.Start(); err != nil {
			log.Printf("document watcher failed to start: %v", err)
			watcher.Close()
		} else {
			defer watcher.Close()
		}
	}

	m := uichat.New(uichat.Options{
		Theme:     styles.NewTheme(),
		Sessions:  sessions,
		Settings:  settings,
		Docs:      docSvc,
		Orch:      orch,
		Renderer:  markdown.NewRenderer(80),
		ExportDir: cfg.DataDir,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	// Store mutations and orchestrator state changes happen on command
	// goroutines; forward them into the program loop.
	sessions.Subscribe(func() { p.Send(uichat.StoreChangedMsg{}) })
	orch.OnStateChange(func(s core.State) { p.Send(uichat.PhaseMsg{Phase: s}) })

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running llamachat: %v\n", err)
		os.Exit(1)
	}

	// Let any in-flight title derivation finish persisting.
	orch.Wait()
}

// bootstrapSettings loads persisted settings, seeding the server URL from
// the bootstrap config on first run.
func bootstrapSettings(settings *store.SettingsStore, cfg *config.Config) model.AppSettings {
	prefs := settings.Load()
	def := model.DefaultSettings()
	if cfg.BaseURL != "" && cfg.BaseURL != def.BaseURL && prefs.BaseURL == def.BaseURL {
		prefs.BaseURL = cfg.BaseURL
		if err := settings.Save(prefs); err != nil {
			log.Printf("persisting bootstrap settings: %v", err)
		}
	}
	return prefs
}
