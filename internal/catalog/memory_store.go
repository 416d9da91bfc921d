package catalog

import (
	"context"
	"sync"

	"github.com/nvrbrth/nvrbrth-backend1/internal/domain"
)

// MemoryStore implements Store with in-memory storage. Used for tests and
// for running without a database file.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]domain.CatalogEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]domain.CatalogEntry)}
}

// SetEntry inserts or replaces an entry. A copy of the stock pointer's value
// is taken so callers cannot mutate tracked stock from outside.
func (s *MemoryStore) SetEntry(e domain.CatalogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.Stock != nil {
		v := *e.Stock
		e.Stock = &v
	}
	s.entries[e.CanonicalKey] = e
}

func (s *MemoryStore) Entries(ctx context.Context, keys []string) (map[string]domain.CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.CatalogEntry, len(keys))
	for _, key := range keys {
		entry, exists := s.entries[key]
		if !exists {
			continue
		}
		if entry.Stock != nil {
			v := *entry.Stock
			entry.Stock = &v
		}
		result[key] = entry
	}
	return result, nil
}

func (s *MemoryStore) CompareAndDecrement(ctx context.Context, key string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[key]
	if !exists {
		return ErrNotFound
	}
	if entry.Stock == nil {
		return nil // untracked, nothing to decrement
	}
	if *entry.Stock < qty {
		return ErrInsufficientStock
	}
	*entry.Stock -= qty
	return nil
}

// StockLevel reports the tracked stock for a key. The second return is false
// when the key is unknown or untracked.
func (s *MemoryStore) StockLevel(key string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[key]
	if !exists || entry.Stock == nil {
		return 0, false
	}
	return *entry.Stock, true
}
