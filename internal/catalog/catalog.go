package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// ImageRecord is the durable bookkeeping row for one uploaded image
type ImageRecord struct {
	UserID       string
	JobID        string
	RelativePath string
	StorageKey   string
	PublicURL    string
	SizeBytes    int64
	Width        int
	Height       int
}

// Store persists image records in Postgres
type Store struct {
	db *sql.DB
}

// NewStore creates an image catalog store and ensures its table exists
func NewStore(db *sql.DB) (*Store, error) {
	store := &Store{db: db}

	if err := store.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure catalog table: %w", err)
	}

	return store, nil
}

func (s *Store) ensureTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS imported_images (
			storage_key TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			job_id TEXT,
			relative_path TEXT,
			public_url TEXT,
			size_bytes BIGINT,
			width INTEGER,
			height INTEGER,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`

	_, err := s.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create imported_images table: %w", err)
	}

	log.Printf("✓ imported_images table ready")
	return nil
}

// SaveImage upserts one image record.
// Upsert keeps a retried workflow step from failing on its own earlier write.
func (s *Store) SaveImage(ctx context.Context, rec ImageRecord) error {
	query := `
		INSERT INTO imported_images (storage_key, user_id, job_id, relative_path, public_url, size_bytes, width, height)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (storage_key) DO UPDATE
		SET public_url = EXCLUDED.public_url,
		    size_bytes = EXCLUDED.size_bytes,
		    width = EXCLUDED.width,
		    height = EXCLUDED.height
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.StorageKey, rec.UserID, rec.JobID, rec.RelativePath,
		rec.PublicURL, rec.SizeBytes, rec.Width, rec.Height,
	)
	if err != nil {
		return fmt.Errorf("failed to save image record: %w", err)
	}

	return nil
}

// CountImages returns the number of image records for a user
func (s *Store) CountImages(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM imported_images WHERE user_id = $1`

	var count int
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count image records: %w", err)
	}

	return count, nil
}
