package pages

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryService is an in-memory page service for standalone mode and tests
type MemoryService struct {
	mu      sync.Mutex
	byUser  map[string][]Page
	content map[string]string
}

// NewMemoryService creates an in-memory page service
func NewMemoryService() *MemoryService {
	return &MemoryService{
		byUser:  make(map[string][]Page),
		content: make(map[string]string),
	}
}

// CreatePage stores one page and returns its generated identity
func (s *MemoryService) CreatePage(ctx context.Context, req CreateRequest) (Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	page := Page{
		ID:    uuid.New().String(),
		Title: req.Title,
	}
	s.byUser[req.UserID] = append(s.byUser[req.UserID], page)
	s.content[page.ID] = req.Content

	return page, nil
}

// ListPagesByUser returns the pages created for a user
func (s *MemoryService) ListPagesByUser(ctx context.Context, userID string) ([]Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Page, len(s.byUser[userID]))
	copy(out, s.byUser[userID])
	return out, nil
}

// PageContent returns the stored content for a page id
func (s *MemoryService) PageContent(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content[id]
}
