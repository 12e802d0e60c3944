// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package docs

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/llamachat-tui/internal/store"
)

const documentsKey = "documents"

// ErrNotFound indicates the requested document does not exist.
var ErrNotFound = errors.New("document not found")

// MaxDocumentSize is the largest file the service will ingest.
const MaxDocumentSize = 5 * 1024 * 1024 // 5MB

// =============================================================================
// SERVICE
// =============================================================================

// Service manages the document set. Documents live in memory and are
// persisted to the key-value store best-effort on every change.
type Service struct {
	mu   sync.RWMutex
	kv   *store.KV
	docs []*Document
}

// NewService creates a document service, loading any persisted documents.
func NewService(kv *store.KV) *Service {
	s := &Service{kv: kv}

	if kv != nil {
		if value, ok, err := kv.Get(documentsKey); err == nil && ok {
			var docs []*Document
			if err := json.Unmarshal([]byte(value), &docs); err == nil {
				s.docs = docs
			}
		}
	}
	return s
}

// Add ingests a document from raw content. The document is chunked and
// persisted, replacing any existing document with the same name.
func (s *Service) Add(name, content string) (*Document, error) {
	if name == "" {
		return nil, errors.New("document name cannot be empty")
	}
	if len(content) > MaxDocumentSize {
		return nil, fmt.Errorf("document %s exceeds maximum size of %d bytes", name, MaxDocumentSize)
	}

	doc := &Document{
		ID:        uuid.New().String(),
		Name:      name,
		Type:      DetectType(name),
		Content:   content,
		Chunks:    SplitChunks(content),
		Tokens:    EstimateTokens(content),
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.removeByNameLocked(name)
	s.docs = append(s.docs, doc)
	s.persistLocked()
	s.mu.Unlock()

	return doc, nil
}

// AddFromFile ingests a document from a file on disk.
func (s *Service) AddFromFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return s.Add(filepath.Base(path), string(data))
}

// Remove deletes the document with the given ID.
func (s *Service) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, doc := range s.docs {
		if doc.ID == id {
			s.docs = append(s.docs[:i], s.docs[i+1:]...)
			s.persistLocked()
			return nil
		}
	}
	return ErrNotFound
}

// RemoveByName deletes the document with the given name, if present.
func (s *Service) RemoveByName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removeByNameLocked(name) {
		s.persistLocked()
	}
}

func (s *Service) removeByNameLocked(name string) bool {
	for i, doc := range s.docs {
		if doc.Name == name {
			s.docs = append(s.docs[:i], s.docs[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the document with the given ID.
func (s *Service) Get(id string) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.docs {
		if doc.ID == id {
			return doc, true
		}
	}
	return nil, false
}

// List returns all documents, newest last.
func (s *Service) List() []*Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// Count returns the number of documents.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// persistLocked writes the document set to the key-value store.
func (s *Service) persistLocked() {
	if s.kv == nil {
		return
	}
	data, err := json.Marshal(s.docs)
	if err != nil {
		log.Printf("document persistence: encode failed: %v", err)
		return
	}
	if err := s.kv.Set(documentsKey, string(data)); err != nil {
		log.Printf("document persistence: %v", err)
	}
}
