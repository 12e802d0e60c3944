// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ============================================================================
// Configuration Types
// ============================================================================

// Config holds bootstrap configuration for llamachat.
type Config struct {
	// DataDir is the directory holding the database and documents.
	// Defaults to ~/.llamachat.
	DataDir string `toml:"data_dir"`

	// BaseURL is the default server endpoint used when no saved
	// settings exist yet.
	BaseURL string `toml:"base_url"`

	// LogFile receives diagnostic output. Empty disables file logging.
	LogFile string `toml:"log_file"`

	// WatchDocuments controls the documents directory watcher.
	WatchDocuments bool `toml:"watch_documents"`
}

// ============================================================================
// Defaults
// ============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DataDir:        defaultDataDir(),
		BaseURL:        "http://localhost:8080",
		WatchDocuments: true,
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".llamachat"
	}
	return filepath.Join(home, ".llamachat")
}

// fillDefaults replaces zero values with defaults.
func (c *Config) fillDefaults() {
	def := Default()
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
}

// ============================================================================
// Paths
// ============================================================================

// ConfigDir returns the llamachat configuration directory (~/.llamachat).
func ConfigDir() string {
	return defaultDataDir()
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DatabasePath returns the path to the sqlite database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "llamachat.db")
}

// DocumentsDir returns the directory watched for context documents.
func (c *Config) DocumentsDir() string {
	return filepath.Join(c.DataDir, "documents")
}

// LogPath returns the log file path, defaulting to one inside DataDir.
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.DataDir, "llamachat.log")
}

// EnsureDataDir creates the data directory if it does not exist.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}

// ============================================================================
// Loading
// ============================================================================

// Load reads configuration from ~/.llamachat/config.toml, falling back to
// defaults when the file is missing. Environment variables override both.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads configuration from the given TOML file.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		loaded := &Config{WatchDocuments: true}
		if _, err := toml.DecodeFile(path, loaded); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		loaded.fillDefaults()
		cfg = loaded
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// ApplyEnvOverrides applies LLAMACHAT_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("LLAMACHAT_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("LLAMACHAT_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("LLAMACHAT_LOG_FILE"); v != "" {
		c.LogFile = v
	}
}

// ============================================================================
// Saving
// ============================================================================

// Save writes the configuration to ~/.llamachat/config.toml.
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the configuration as TOML to the given path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# llamachat configuration")
	fmt.Fprintln(&buf, "# Runtime settings (model, system prompt) are stored in the database.")
	fmt.Fprintln(&buf)
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
