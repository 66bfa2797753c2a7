package memory

import (
	"context"
	"sync"

	"github.com/ethanan544-art/sniper-engine/internal/domain"
	"github.com/ethanan544-art/sniper-engine/internal/storage"
)

// LedgerStore is an in-memory implementation of storage.LedgerStore.
type LedgerStore struct {
	mu   sync.RWMutex
	data []*domain.LedgerEvent // append order
}

// NewLedgerStore creates a new in-memory ledger store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{}
}

// Compile-time interface check.
var _ storage.LedgerStore = (*LedgerStore)(nil)

// Append adds one ledger row.
func (s *LedgerStore) Append(_ context.Context, e *domain.LedgerEvent) error {
	if e == nil || e.Kind == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	eventCopy := *e
	s.data = append(s.data, &eventCopy)
	return nil
}

// ListRecent retrieves up to limit rows, newest first.
func (s *LedgerStore) ListRecent(_ context.Context, limit int) ([]*domain.LedgerEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.data)
	if limit <= 0 || limit > n {
		limit = n
	}

	result := make([]*domain.LedgerEvent, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		eventCopy := *s.data[i]
		result = append(result, &eventCopy)
	}
	return result, nil
}
