// Package store provides the local authoritative state primitives the
// sync engine reads and writes. The engine only ever needs get/set of
// the whole snapshot; task-level CRUD belongs to the application layer.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"tasksheet/internal/model"
)

// Store is the get/set contract for the locally-held aggregate.
type Store interface {
	// Load returns the current snapshot. A store that has never been
	// written returns an empty snapshot, not an error.
	Load() (model.Snapshot, error)

	// Save replaces the snapshot.
	Save(model.Snapshot) error
}

// FileStore persists the snapshot as a single JSON file. Writes are
// atomic (temp file + rename) so a concurrent reader never observes a
// half-written snapshot.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by the given path. The parent
// directory is created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path (the fsnotify watch target).
func (s *FileStore) Path() string { return s.path }

// Load implements Store.
func (s *FileStore) Load() (model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.Snapshot{}, nil
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("reading state file: %w", err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("corrupt state file %s: %w", s.path, err)
	}
	return snap, nil
}

// Save implements Store.
func (s *FileStore) Save(snap model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing state file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
