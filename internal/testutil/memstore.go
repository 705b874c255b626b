package testutil

import (
	"sync"

	"tasksheet/internal/model"
)

// MemStore is an in-memory store.Store for testing. OnSave, when set,
// runs after every successful save; tests use it to simulate the
// change-observation cycle that follows an engine apply.
type MemStore struct {
	mu   sync.Mutex
	snap model.Snapshot

	LoadErr error
	SaveErr error

	SaveCount int
	OnSave    func()
}

// NewMemStore creates a store holding the given snapshot.
func NewMemStore(snap model.Snapshot) *MemStore {
	return &MemStore{snap: snap}
}

// Load implements store.Store.
func (m *MemStore) Load() (model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return model.Snapshot{}, m.LoadErr
	}
	return m.snap, nil
}

// Save implements store.Store.
func (m *MemStore) Save(snap model.Snapshot) error {
	m.mu.Lock()
	if m.SaveErr != nil {
		m.mu.Unlock()
		return m.SaveErr
	}
	m.snap = snap
	m.SaveCount++
	hook := m.OnSave
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}
