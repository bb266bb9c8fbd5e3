package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemStore implements BlobStore on the local filesystem.
// Intended for standalone/dev use; public URLs are served by the worker's
// static file handler rooted at baseURL.
type FilesystemStore struct {
	baseDir string
	baseURL string
}

// NewFilesystemStore creates a filesystem-backed blob store
func NewFilesystemStore(baseDir, baseURL string) (*FilesystemStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FilesystemStore{
		baseDir: baseDir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Put writes data under key, creating parent directories as needed
func (fs *FilesystemStore) Put(ctx context.Context, key string, data []byte, contentType string) (bool, error) {
	path := filepath.Join(fs.baseDir, filepath.FromSlash(key))

	// Security: prevent directory traversal
	if !filepath.HasPrefix(filepath.Clean(path), filepath.Clean(fs.baseDir)) {
		return false, fmt.Errorf("invalid key: path traversal detected")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, fmt.Errorf("failed to write file: %w", err)
	}

	return true, nil
}

// PublicURL returns the URL the worker serves the stored file under
func (fs *FilesystemStore) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s", fs.baseURL, key)
}

// Exists checks if a file exists at the given key
func (fs *FilesystemStore) Exists(ctx context.Context, key string) (bool, error) {
	path := filepath.Join(fs.baseDir, filepath.FromSlash(key))

	if !filepath.HasPrefix(filepath.Clean(path), filepath.Clean(fs.baseDir)) {
		return false, fmt.Errorf("invalid key: path traversal detected")
	}

	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file: %w", err)
	}

	return true, nil
}

// BaseDir returns the directory files are stored under
func (fs *FilesystemStore) BaseDir() string {
	return fs.baseDir
}
