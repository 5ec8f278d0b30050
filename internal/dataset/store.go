// Package dataset holds the active contest dataset in memory.
package dataset

import (
	"errors"
	"sync"

	"contestlens/pkg/contracts/domain"
)

// ErrNoDataset is returned when nothing has been uploaded yet.
var ErrNoDataset = errors.New("no dataset loaded")

// MemoryStore keeps the single active dataset. Nothing is written to disk.
type MemoryStore struct {
	mu      sync.RWMutex
	current *domain.Dataset
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Replace swaps in ds and returns the dataset it displaced, if any.
func (s *MemoryStore) Replace(ds *domain.Dataset) *domain.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current
	s.current = ds
	return prev
}

// Current returns the active dataset.
// Callers must treat it as read-only; Replace never mutates a stored dataset.
func (s *MemoryStore) Current() (*domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, ErrNoDataset
	}
	return s.current, nil
}

// Loaded reports whether a dataset is active
func (s *MemoryStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// Clear discards the active dataset and returns it, or nil if there was none.
func (s *MemoryStore) Clear() *domain.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current
	s.current = nil
	return prev
}
