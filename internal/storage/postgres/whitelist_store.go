package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/ethanan544-art/sniper-engine/internal/storage"
)

// WhitelistStore implements storage.WhitelistStore using PostgreSQL.
type WhitelistStore struct {
	pool *Pool
}

// NewWhitelistStore creates a new WhitelistStore.
func NewWhitelistStore(pool *Pool) *WhitelistStore {
	return &WhitelistStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WhitelistStore = (*WhitelistStore)(nil)

// Approve records a whitelist entry for the pool. Idempotent upsert.
func (s *WhitelistStore) Approve(ctx context.Context, poolAddress string) error {
	if poolAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO whitelist (pool_address, approved_at, revoked)
		VALUES ($1, $2, FALSE)
		ON CONFLICT (pool_address) DO NOTHING
	`

	_, err := s.pool.Exec(ctx, query, poolAddress, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("approve pool: %w", err)
	}
	return nil
}

// IsApproved reports whether a non-revoked entry exists for the pool.
func (s *WhitelistStore) IsApproved(ctx context.Context, poolAddress string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM whitelist WHERE pool_address = $1 AND NOT revoked
		)
	`

	var approved bool
	if err := s.pool.QueryRow(ctx, query, poolAddress).Scan(&approved); err != nil {
		return false, fmt.Errorf("check whitelist: %w", err)
	}
	return approved, nil
}
