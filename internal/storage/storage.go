package storage

import "context"

// BlobStore persists raw image bytes and exposes durable public URLs.
type BlobStore interface {
	// Put writes data under key with the given content type. The returned
	// bool reports whether the backend confirmed the write.
	Put(ctx context.Context, key string, data []byte, contentType string) (bool, error)

	// PublicURL returns the durable public URL for a stored key
	PublicURL(key string) string
}
