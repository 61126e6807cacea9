package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/ffbrank/ffbrank/internal/domain/model"
)

// MemoryRegistry keeps the registry in process memory. Loads and saves
// copy, so callers never share backing arrays with the store.
type MemoryRegistry struct {
	mu      sync.RWMutex
	entries []model.RegistryEntry
	saves   int
}

// NewMemoryRegistry returns a store seeded with entries.
func NewMemoryRegistry(entries ...model.RegistryEntry) *MemoryRegistry {
	return &MemoryRegistry{entries: slices.Clone(entries)}
}

func (s *MemoryRegistry) Load(context.Context) ([]model.RegistryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.entries == nil {
		return []model.RegistryEntry{}, nil
	}
	return slices.Clone(s.entries), nil
}

func (s *MemoryRegistry) Save(_ context.Context, entries []model.RegistryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = slices.Clone(entries)
	s.saves++
	return nil
}

// Saves reports how many times Save was called.
func (s *MemoryRegistry) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
