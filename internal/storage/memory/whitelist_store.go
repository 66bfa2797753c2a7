package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ethanan544-art/sniper-engine/internal/domain"
	"github.com/ethanan544-art/sniper-engine/internal/storage"
)

// WhitelistStore is an in-memory implementation of storage.WhitelistStore.
type WhitelistStore struct {
	mu   sync.RWMutex
	data map[string]*domain.WhitelistEntry // keyed by pool address
}

// NewWhitelistStore creates a new in-memory whitelist store.
func NewWhitelistStore() *WhitelistStore {
	return &WhitelistStore{
		data: make(map[string]*domain.WhitelistEntry),
	}
}

// Compile-time interface check.
var _ storage.WhitelistStore = (*WhitelistStore)(nil)

// Approve records a whitelist entry for the pool. Idempotent.
func (s *WhitelistStore) Approve(_ context.Context, poolAddress string) error {
	if poolAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[poolAddress]; exists {
		return nil
	}

	s.data[poolAddress] = &domain.WhitelistEntry{
		PoolAddress: poolAddress,
		ApprovedAt:  time.Now().UnixMilli(),
	}
	return nil
}

// IsApproved reports whether a non-revoked entry exists for the pool.
func (s *WhitelistStore) IsApproved(_ context.Context, poolAddress string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.data[poolAddress]
	return exists && !e.Revoked, nil
}
