package quota

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory quota store for standalone mode and tests
type MemoryStore struct {
	mu           sync.Mutex
	used         map[string]int64
	limits       map[string]int64
	defaultLimit int64
}

// NewMemoryStore creates an in-memory quota store
func NewMemoryStore(defaultLimit int64) *MemoryStore {
	return &MemoryStore{
		used:         make(map[string]int64),
		limits:       make(map[string]int64),
		defaultLimit: defaultLimit,
	}
}

// SetLimit overrides the limit for one user
func (s *MemoryStore) SetLimit(userID string, limit int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits[userID] = limit
}

// GetUsage returns the user's used bytes and limit
func (s *MemoryStore) GetUsage(ctx context.Context, userID string) (Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit, ok := s.limits[userID]
	if !ok {
		limit = s.defaultLimit
	}

	return Usage{StorageUsed: s.used[userID], StorageLimit: limit}, nil
}

// IncrementUsage adds delta bytes to the user's usage counter
func (s *MemoryStore) IncrementUsage(ctx context.Context, userID string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.used[userID] += delta
	return nil
}
