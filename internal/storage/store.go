// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/lmchat/internal/model"
	"github.com/jeranaias/lmchat/internal/util"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// Sentinel errors for errors.Is checks.
var (
	ErrNotFound = errors.New("conversation not found")
)

// StoreError wraps storage failures with the conversation id involved.
type StoreError struct {
	ID  string
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("storage %s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// =============================================================================
// STORE
// =============================================================================

// Store persists conversations as individual JSON files under a base
// directory, one file per conversation keyed by id. All methods are safe
// for concurrent use.
type Store struct {
	mu      sync.RWMutex
	baseDir string
}

// NewStore creates a store rooted at baseDir, creating the directory if
// needed.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, &StoreError{Op: "init", Err: err}
	}
	return &Store{baseDir: baseDir}, nil
}

// BaseDir returns the directory conversations are stored in.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// Save writes conv to disk, stamping UpdatedAt first. Saving an existing id
// replaces the previous record.
func (s *Store) Save(conv *model.Conversation) error {
	if conv == nil || conv.ID == "" {
		return &StoreError{Op: "save", Err: errors.New("conversation has no id")}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return &StoreError{ID: conv.ID, Op: "save", Err: err}
	}
	if err := util.AtomicWriteFile(s.pathFor(conv.ID), data, 0o644); err != nil {
		return &StoreError{ID: conv.ID, Op: "save", Err: err}
	}
	return nil
}

// Load reads a single conversation by id.
func (s *Store) Load(id string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &StoreError{ID: id, Op: "load", Err: ErrNotFound}
		}
		return nil, &StoreError{ID: id, Op: "load", Err: err}
	}

	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, &StoreError{ID: id, Op: "load", Err: err}
	}
	return &conv, nil
}

// LoadAll reads every conversation in the store, newest first by UpdatedAt.
// Files that cannot be read or parsed are skipped so one corrupt record
// never hides the rest.
func (s *Store) LoadAll() ([]*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &StoreError{Op: "list", Err: err}
	}

	var convs []*model.Conversation
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		var conv model.Conversation
		if err := json.Unmarshal(data, &conv); err != nil {
			continue
		}
		if conv.ID == "" {
			continue
		}
		convs = append(convs, &conv)
	}

	sort.Slice(convs, func(i, j int) bool {
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})
	return convs, nil
}

// Delete removes a conversation by id. Deleting an id that does not exist
// is not an error.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.pathFor(id)); err != nil && !os.IsNotExist(err) {
		return &StoreError{ID: id, Op: "delete", Err: err}
	}
	return nil
}

// Exists reports whether a conversation with the given id is stored.
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.pathFor(id))
	return err == nil
}

// Count returns the number of stored conversations.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, &StoreError{Op: "count", Err: err}
	}
	n := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			n++
		}
	}
	return n, nil
}

// Prune deletes the oldest conversations until at most max remain. A max
// of zero or less disables pruning.
func (s *Store) Prune(max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}
	convs, err := s.LoadAll()
	if err != nil {
		return 0, err
	}
	if len(convs) <= max {
		return 0, nil
	}

	removed := 0
	for _, conv := range convs[max:] {
		if err := s.Delete(conv.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// pathFor sanitizes the id into a filename under the base directory.
func (s *Store) pathFor(id string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, id)
	return filepath.Join(s.baseDir, safe+".json")
}
