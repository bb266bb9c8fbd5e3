package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/simple-content/pkg/simplecontent"
)

// ContentStore implements BlobStore on top of a simple-content service.
// simple-content assigns its own content IDs, so the store remembers the
// key → content ID mapping to answer PublicURL for keys it wrote.
type ContentStore struct {
	service  simplecontent.Service
	baseURL  string
	ownerID  uuid.UUID
	tenantID uuid.UUID

	mu   sync.Mutex
	keys map[string]uuid.UUID
}

// NewContentStore creates a blob store backed by a simple-content service.
// baseURL is the public address of the content API that serves downloads.
func NewContentStore(service simplecontent.Service, baseURL string, ownerID, tenantID uuid.UUID) *ContentStore {
	return &ContentStore{
		service:  service,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		ownerID:  ownerID,
		tenantID: tenantID,
		keys:     make(map[string]uuid.UUID),
	}
}

// Put uploads data as a new content item under the given key
func (s *ContentStore) Put(ctx context.Context, key string, data []byte, contentType string) (bool, error) {
	content, err := s.service.UploadContent(ctx, simplecontent.UploadContentRequest{
		OwnerID:      s.ownerID,
		TenantID:     s.tenantID,
		Name:         key,
		DocumentType: contentType,
		Reader:       bytes.NewReader(data),
		FileName:     path.Base(key),
		Tags:         []string{"import", "image"},
	})
	if err != nil {
		return false, fmt.Errorf("failed to upload content: %w", err)
	}

	s.mu.Lock()
	s.keys[key] = content.ID
	s.mu.Unlock()

	return true, nil
}

// PublicURL returns the content API download URL for a key written by Put.
// Unknown keys produce an empty string.
func (s *ContentStore) PublicURL(key string) string {
	s.mu.Lock()
	id, ok := s.keys[key]
	s.mu.Unlock()
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s/api/v1/contents/%s/download", s.baseURL, id)
}
