// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"fmt"

	"github.com/jeranaias/llamachat-tui/internal/model"
)

const settingsKey = "app_settings"

// SettingsStore persists AppSettings in the key-value store.
type SettingsStore struct {
	kv *KV
}

// NewSettingsStore creates a settings store over kv.
func NewSettingsStore(kv *KV) *SettingsStore {
	return &SettingsStore{kv: kv}
}

// Load returns the persisted settings, or defaults when nothing was saved
// or the saved value cannot be read. Load never fails; settings from
// older versions decode with new fields defaulted.
func (s *SettingsStore) Load() model.AppSettings {
	value, ok, err := s.kv.Get(settingsKey)
	if err != nil || !ok {
		return model.DefaultSettings()
	}
	return model.DecodeSettings([]byte(value))
}

// Save persists the settings.
func (s *SettingsStore) Save(settings model.AppSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return s.kv.Set(settingsKey, string(data))
}
