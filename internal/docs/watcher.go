// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package docs

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces rapid write events for the same file.
const watchDebounce = 500 * time.Millisecond

// =============================================================================
// DIRECTORY WATCHER
// =============================================================================

// Watcher mirrors a directory into the document service. Files dropped
// into the directory are ingested, edits re-ingest, deletions remove the
// document. Subdirectories and dotfiles are ignored.
type Watcher struct {
	svc     *Service
	dir     string
	watcher *fsnotify.Watcher

	mu     sync.Mutex
	timers map[string]*time.Timer
	done   chan struct{}
}

// NewWatcher creates a watcher for dir, creating the directory if needed.
func NewWatcher(svc *Service, dir string) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create documents directory: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		svc:     svc,
		dir:     dir,
		watcher: fw,
		timers:  make(map[string]*time.Timer),
		done:    make(chan struct{}),
	}, nil
}

// Start ingests the directory's current contents and begins watching for
// changes. It returns immediately; event handling runs in a goroutine.
func (w *Watcher) Start() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to read documents directory: %w", err)
	}
	for _, entry := range entries {
		if w.ignored(entry.Name()) || entry.IsDir() {
			continue
		}
		if _, err := w.svc.AddFromFile(filepath.Join(w.dir, entry.Name())); err != nil {
			log.Printf("document watcher: ingest %s: %v", entry.Name(), err)
		}
	}

	go w.loop()
	return nil
}

// loop dispatches fsnotify events until Close.
func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("document watcher: %v", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if w.ignored(name) {
		return
	}

	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.scheduleIngest(event.Name)
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.svc.RemoveByName(name)
	}
}

// scheduleIngest debounces ingestion so a file being written in several
// syscalls is read once, after it settles.
func (w *Watcher) scheduleIngest(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(watchDebounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return
		}
		if _, err := w.svc.AddFromFile(path); err != nil {
			log.Printf("document watcher: ingest %s: %v", filepath.Base(path), err)
		}
	})
}

func (w *Watcher) ignored(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	close(w.done)

	w.mu.Lock()
	for _, timer := range w.timers {
		timer.Stop()
	}
	w.mu.Unlock()

	return w.watcher.Close()
}
