package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ethanan544-art/sniper-engine/internal/domain"
	"github.com/ethanan544-art/sniper-engine/internal/storage"
)

// PoolStore is an in-memory implementation of storage.PoolStore.
type PoolStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Pool // keyed by address
}

// NewPoolStore creates a new in-memory pool store.
func NewPoolStore() *PoolStore {
	return &PoolStore{
		data: make(map[string]*domain.Pool),
	}
}

// Compile-time interface check.
var _ storage.PoolStore = (*PoolStore)(nil)

// Create adds a new pool. Returns ErrDuplicateKey if the address exists.
func (s *PoolStore) Create(_ context.Context, p *domain.Pool) error {
	if p == nil || p.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.Address]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	poolCopy := *p
	s.data[p.Address] = &poolCopy
	return nil
}

// GetByAddress retrieves a pool by its address. Returns ErrNotFound if not exists.
func (s *PoolStore) GetByAddress(_ context.Context, address string) (*domain.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	poolCopy := *p
	return &poolCopy, nil
}

// SetVerdict records the risk-scoring outcome for a pool.
func (s *PoolStore) SetVerdict(_ context.Context, address string, status domain.PoolStatus, score int, rationale string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.data[address]
	if !exists {
		return storage.ErrNotFound
	}

	p.Status = status
	p.RiskScore = &score
	p.RiskRationale = &rationale
	return nil
}

// ListRecent retrieves up to limit pools ordered by detection time DESC.
func (s *PoolStore) ListRecent(_ context.Context, limit int) ([]*domain.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Pool, 0, len(s.data))
	for _, p := range s.data {
		poolCopy := *p
		result = append(result, &poolCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].DetectedAt != result[j].DetectedAt {
			return result[i].DetectedAt > result[j].DetectedAt
		}
		return result[i].Address < result[j].Address
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
