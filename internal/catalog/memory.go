package catalog

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory image catalog for standalone mode and tests
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]ImageRecord
}

// NewMemoryStore creates an in-memory image catalog
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]ImageRecord)}
}

// SaveImage upserts one image record keyed by storage key
func (s *MemoryStore) SaveImage(ctx context.Context, rec ImageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.StorageKey] = rec
	return nil
}

// Records returns a snapshot of all saved records
func (s *MemoryStore) Records() []ImageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ImageRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out
}
