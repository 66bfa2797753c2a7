package storage

import (
	"context"

	"github.com/ethanan544-art/sniper-engine/internal/domain"
)

// PoolStore provides access to pools storage.
type PoolStore interface {
	// Create adds a new pool with status=analyzing.
	// Returns ErrDuplicateKey if the address already exists.
	Create(ctx context.Context, p *domain.Pool) error

	// GetByAddress retrieves a pool by its address. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address string) (*domain.Pool, error)

	// SetVerdict records the risk-scoring outcome: new status plus score and
	// rationale. Returns ErrNotFound if the pool does not exist.
	SetVerdict(ctx context.Context, address string, status domain.PoolStatus, score int, rationale string) error

	// ListRecent retrieves up to limit pools ordered by detection time DESC.
	ListRecent(ctx context.Context, limit int) ([]*domain.Pool, error)
}

// TradeStore provides access to trades storage. Insert-only.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if the signature exists.
	Insert(ctx context.Context, t *domain.Trade) error

	// GetBySignature retrieves a trade by its signature. Returns ErrNotFound if not exists.
	GetBySignature(ctx context.Context, signature string) (*domain.Trade, error)

	// ListRecent retrieves up to limit trades ordered by execution time DESC.
	ListRecent(ctx context.Context, limit int) ([]*domain.Trade, error)
}

// WhitelistStore provides access to the operator-curated whitelist.
// Reads must be safe to call concurrently with writes, and a write must be
// visible to subsequent reads.
type WhitelistStore interface {
	// Approve records a whitelist entry for the pool. Idempotent.
	Approve(ctx context.Context, poolAddress string) error

	// IsApproved reports whether a non-revoked entry exists for the pool.
	IsApproved(ctx context.Context, poolAddress string) (bool, error)
}

// LedgerStore provides access to the append-only pipeline ledger.
type LedgerStore interface {
	// Append adds one ledger row. Never updates.
	Append(ctx context.Context, e *domain.LedgerEvent) error

	// ListRecent retrieves up to limit rows ordered by timestamp DESC.
	ListRecent(ctx context.Context, limit int) ([]*domain.LedgerEvent, error)
}
