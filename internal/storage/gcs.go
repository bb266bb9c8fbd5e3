package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCSStore implements BlobStore on a Google Cloud Storage bucket.
// Writes are conditioned on the object not existing, so a retried workflow
// step re-uploading the same key is a no-op rather than a duplicate.
type GCSStore struct {
	bucket     *gcs.BucketHandle
	bucketName string
}

// NewGCSStore creates a GCS-backed blob store for the given bucket
func NewGCSStore(ctx context.Context, bucketName string) (*GCSStore, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStore{
		bucket:     client.Bucket(bucketName),
		bucketName: bucketName,
	}, nil
}

// Put writes data to the bucket only if the object doesn't already exist
func (s *GCSStore) Put(ctx context.Context, key string, data []byte, contentType string) (bool, error) {
	writer := s.bucket.Object(key).If(gcs.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == 412 {
			log.Printf("SKIPPING: Object %s already exists.", key)
			return true, nil
		}
		return false, fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == 412 {
			log.Printf("SKIPPING: Object %s already exists.", key)
			return true, nil
		}
		return false, fmt.Errorf("failed to finalize GCS write: %w", err)
	}

	return true, nil
}

// PublicURL returns the public object URL for a stored key
func (s *GCSStore) PublicURL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, key)
}
