package quota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
)

// ErrUserNotFound is returned when no quota row exists for a user
var ErrUserNotFound = errors.New("quota: user not found")

// Usage is a user's current storage consumption against their limit
type Usage struct {
	StorageUsed  int64
	StorageLimit int64
}

// Store tracks per-user storage quotas in Postgres.
// Increments are atomic at the database so concurrent jobs for the same user
// cannot lose updates.
type Store struct {
	db           *sql.DB
	defaultLimit int64
}

// NewStore creates a quota store and ensures its table exists
func NewStore(db *sql.DB, defaultLimit int64) (*Store, error) {
	store := &Store{db: db, defaultLimit: defaultLimit}

	if err := store.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure quota table: %w", err)
	}

	return store, nil
}

func (s *Store) ensureTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS user_storage (
			user_id TEXT PRIMARY KEY,
			storage_used BIGINT NOT NULL DEFAULT 0,
			storage_limit BIGINT NOT NULL,
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`

	_, err := s.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create user_storage table: %w", err)
	}

	log.Printf("✓ user_storage table ready")
	return nil
}

// GetUsage returns the user's used bytes and limit, creating the quota row
// with the default limit on first sight.
func (s *Store) GetUsage(ctx context.Context, userID string) (Usage, error) {
	query := `
		INSERT INTO user_storage (user_id, storage_used, storage_limit)
		VALUES ($1, 0, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET user_id = EXCLUDED.user_id
		RETURNING storage_used, storage_limit
	`

	var usage Usage
	err := s.db.QueryRowContext(ctx, query, userID, s.defaultLimit).Scan(&usage.StorageUsed, &usage.StorageLimit)
	if err != nil {
		return Usage{}, fmt.Errorf("failed to get storage usage: %w", err)
	}

	return usage, nil
}

// IncrementUsage atomically adds delta bytes to the user's usage counter
func (s *Store) IncrementUsage(ctx context.Context, userID string, delta int64) error {
	query := `
		UPDATE user_storage
		SET storage_used = storage_used + $2,
		    updated_at = NOW()
		WHERE user_id = $1
	`

	res, err := s.db.ExecContext(ctx, query, userID, delta)
	if err != nil {
		return fmt.Errorf("failed to increment storage usage: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check increment result: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}
