// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DataDir == "" {
		t.Error("expected non-empty data dir")
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("unexpected base URL %q", cfg.BaseURL)
	}
	if !cfg.WatchDocuments {
		t.Error("expected document watching enabled by default")
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.BaseURL != Default().BaseURL {
		t.Errorf("expected default base URL, got %q", cfg.BaseURL)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
data_dir = "/tmp/llamachat-test"
base_url = "http://localhost:9090"
watch_documents = false
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.DataDir != "/tmp/llamachat-test" {
		t.Errorf("unexpected data dir %q", cfg.DataDir)
	}
	if cfg.BaseURL != "http://localhost:9090" {
		t.Errorf("unexpected base URL %q", cfg.BaseURL)
	}
	if cfg.WatchDocuments {
		t.Error("expected document watching disabled")
	}
}

func TestLoadFromPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`base_url = "http://other:8080"`), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.BaseURL != "http://other:8080" {
		t.Errorf("unexpected base URL %q", cfg.BaseURL)
	}
	if cfg.DataDir != Default().DataDir {
		t.Errorf("expected default data dir, got %q", cfg.DataDir)
	}
	if !cfg.WatchDocuments {
		t.Error("expected watching to stay enabled when omitted")
	}
}

func TestLoadFromInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not [valid toml"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for invalid TOML")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg := Default()
	cfg.DataDir = "/tmp/llamachat-save"
	cfg.LogFile = "/tmp/chat.log"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# llamachat configuration") {
		t.Error("expected header comment")
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.DataDir != cfg.DataDir {
		t.Errorf("data dir mismatch: %q != %q", loaded.DataDir, cfg.DataDir)
	}
	if loaded.LogFile != cfg.LogFile {
		t.Errorf("log file mismatch: %q != %q", loaded.LogFile, cfg.LogFile)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LLAMACHAT_DATA_DIR", "/env/data")
	t.Setenv("LLAMACHAT_BASE_URL", "http://env:1234")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.DataDir != "/env/data" {
		t.Errorf("unexpected data dir %q", cfg.DataDir)
	}
	if cfg.BaseURL != "http://env:1234" {
		t.Errorf("unexpected base URL %q", cfg.BaseURL)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := &Config{DataDir: "/data"}

	if got := cfg.DatabasePath(); got != filepath.Join("/data", "llamachat.db") {
		t.Errorf("unexpected database path %q", got)
	}
	if got := cfg.DocumentsDir(); got != filepath.Join("/data", "documents") {
		t.Errorf("unexpected documents dir %q", got)
	}
	if got := cfg.LogPath(); got != filepath.Join("/data", "llamachat.log") {
		t.Errorf("unexpected log path %q", got)
	}
	cfg.LogFile = "/var/log/chat.log"
	if got := cfg.LogPath(); got != "/var/log/chat.log" {
		t.Errorf("expected explicit log file, got %q", got)
	}
}
