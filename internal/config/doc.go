// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides bootstrap configuration loading for llamachat.
//
// Bootstrap settings are the ones needed before the database opens: where
// the data lives, where logs go, and which server to talk to on first run.
// Everything the user can change at runtime (system prompt, model, context
// mode) lives in the settings store instead.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (LLAMACHAT_*)
//   - ~/.llamachat/config.toml
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	db := cfg.DatabasePath()
//	docs := cfg.DocumentsDir()
package config
