// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/jeranaias/llamachat-tui/internal/model"
)

const sessionsKey = "chat_sessions"

// savedSessions is the persisted shape of the session collection.
type savedSessions struct {
	ActiveID string           `json:"active_id"`
	Sessions []*model.Session `json:"sessions"`
}

// =============================================================================
// SESSION STORE
// =============================================================================

// SessionStore holds the session collection and the active selection.
//
// Sessions are ordered newest first. Every mutation persists the whole
// collection best-effort and notifies subscribers. The store guarantees
// at least one session exists at all times.
type SessionStore struct {
	mu       sync.RWMutex
	kv       *KV
	sessions []*model.Session
	activeID string

	subMu       sync.Mutex
	subscribers []func()
}

// NewSessionStore creates a session store backed by kv, loading any
// previously saved collection. With nothing saved (or an unreadable
// save) it starts with one fresh session using systemPrompt.
func NewSessionStore(kv *KV, systemPrompt string) *SessionStore {
	s := &SessionStore{kv: kv}

	if value, ok, err := kv.Get(sessionsKey); err == nil && ok {
		var saved savedSessions
		if err := json.Unmarshal([]byte(value), &saved); err == nil && len(saved.Sessions) > 0 {
			s.sessions = saved.Sessions
			s.activeID = saved.ActiveID
			if s.findLocked(s.activeID) == nil {
				s.activeID = s.sessions[0].ID
			}
			return s
		}
	}

	sess := model.NewSession(systemPrompt)
	s.sessions = []*model.Session{sess}
	s.activeID = sess.ID
	return s
}

// Subscribe registers fn to be called after every mutation. Subscribers
// pull fresh snapshots via Sessions and Active.
func (s *SessionStore) Subscribe(fn func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// notify calls subscribers. Must not be called with mu held.
func (s *SessionStore) notify() {
	s.subMu.Lock()
	subs := make([]func(), len(s.subscribers))
	copy(subs, s.subscribers)
	s.subMu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Sessions returns a deep copy of the collection, newest first.
func (s *SessionStore) Sessions() []*model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.Clone()
	}
	return out
}

// ActiveID returns the ID of the active session.
func (s *SessionStore) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Active returns a deep copy of the active session.
func (s *SessionStore) Active() *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sess := s.findLocked(s.activeID); sess != nil {
		return sess.Clone()
	}
	return nil
}

// Get returns a deep copy of the session with the given ID, or nil.
func (s *SessionStore) Get(id string) *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sess := s.findLocked(id); sess != nil {
		return sess.Clone()
	}
	return nil
}

// Count returns the number of sessions.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) findLocked(id string) *model.Session {
	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess
		}
	}
	return nil
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Create starts a new session with the given system prompt and makes it
// active. If the active session is still empty it is reused instead of
// piling up blank sessions; only its system prompt is refreshed.
func (s *SessionStore) Create(systemPrompt string) *model.Session {
	s.mu.Lock()

	if active := s.findLocked(s.activeID); active != nil && active.IsEmpty() {
		active.Messages = []model.Message{model.NewSystemMessage(systemPrompt)}
		active.Title = model.PlaceholderTitle
		clone := active.Clone()
		s.persistLocked()
		s.mu.Unlock()
		s.notify()
		return clone
	}

	sess := model.NewSession(systemPrompt)
	s.sessions = append([]*model.Session{sess}, s.sessions...)
	s.activeID = sess.ID
	clone := sess.Clone()
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
	return clone
}

// Select makes the session with the given ID active. Unknown IDs are
// ignored.
func (s *SessionStore) Select(id string) {
	s.mu.Lock()
	if s.findLocked(id) == nil {
		s.mu.Unlock()
		return
	}
	s.activeID = id
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
}

// Delete removes the session with the given ID. If the active session is
// deleted the newest remaining one becomes active; deleting the last
// session replaces it with a fresh one using systemPrompt.
func (s *SessionStore) Delete(id, systemPrompt string) {
	s.mu.Lock()

	idx := -1
	for i, sess := range s.sessions {
		if sess.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}

	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)

	if len(s.sessions) == 0 {
		sess := model.NewSession(systemPrompt)
		s.sessions = []*model.Session{sess}
		s.activeID = sess.ID
	} else if s.activeID == id {
		s.activeID = s.sessions[0].ID
	}

	s.persistLocked()
	s.mu.Unlock()

	s.notify()
}

// ClearAll discards every session and starts over with a single fresh
// session using systemPrompt.
func (s *SessionStore) ClearAll(systemPrompt string) *model.Session {
	s.mu.Lock()

	sess := model.NewSession(systemPrompt)
	s.sessions = []*model.Session{sess}
	s.activeID = sess.ID
	clone := sess.Clone()

	s.persistLocked()
	s.mu.Unlock()

	s.notify()
	return clone
}

// UpdateMessages replaces the transcript of the session with the given ID.
func (s *SessionStore) UpdateMessages(id string, msgs []model.Message) {
	s.mu.Lock()
	sess := s.findLocked(id)
	if sess == nil {
		s.mu.Unlock()
		return
	}
	sess.Messages = model.CloneMessages(msgs)
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
}

// UpdateTitle sets the title of the session with the given ID.
func (s *SessionStore) UpdateTitle(id, title string) {
	s.mu.Lock()
	sess := s.findLocked(id)
	if sess == nil {
		s.mu.Unlock()
		return
	}
	sess.Title = title
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
}

// SetTitleIfPlaceholder sets the title only if the session still has the
// placeholder title. Returns true if the title was applied. Automatic
// title derivation goes through here so it never clobbers a title the
// user has seen settle.
func (s *SessionStore) SetTitleIfPlaceholder(id, title string) bool {
	s.mu.Lock()
	sess := s.findLocked(id)
	if sess == nil || !sess.HasPlaceholderTitle() {
		s.mu.Unlock()
		return false
	}
	sess.Title = title
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
	return true
}

// SetSystemPrompt rewrites the leading system message of the session.
func (s *SessionStore) SetSystemPrompt(id, prompt string) {
	s.mu.Lock()
	sess := s.findLocked(id)
	if sess == nil {
		s.mu.Unlock()
		return
	}
	if len(sess.Messages) > 0 && sess.Messages[0].Role == model.RoleSystem {
		sess.Messages[0].Content = prompt
	} else {
		sess.Messages = append([]model.Message{model.NewSystemMessage(prompt)}, sess.Messages...)
	}
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// persistLocked writes the whole collection to the key-value store.
// Failures are logged, not returned; in-memory state stays authoritative.
func (s *SessionStore) persistLocked() {
	if s.kv == nil {
		return
	}

	data, err := json.Marshal(savedSessions{
		ActiveID: s.activeID,
		Sessions: s.sessions,
	})
	if err != nil {
		log.Printf("session persistence: encode failed: %v", err)
		return
	}
	if err := s.kv.Set(sessionsKey, string(data)); err != nil {
		log.Printf("session persistence: %v", err)
	}
}

// Export returns the session with the given ID rendered in the requested
// format ("markdown" or "json").
func (s *SessionStore) Export(id, format string) ([]byte, error) {
	sess := s.Get(id)
	if sess == nil {
		return nil, fmt.Errorf("session %s not found", id)
	}

	switch format {
	case "markdown", "md":
		return []byte(sess.ExportMarkdown()), nil
	case "json":
		return sess.ExportJSON()
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}
