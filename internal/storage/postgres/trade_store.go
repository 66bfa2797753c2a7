package postgres

import (
	"context"
	"fmt"

	"github.com/ethanan544-art/sniper-engine/internal/domain"
	"github.com/ethanan544-art/sniper-engine/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL. Insert-only.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// Insert adds a new trade. Returns ErrDuplicateKey if the signature exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.Trade) error {
	query := `
		INSERT INTO trades (
			signature, pool_address, output_mint, in_lamports, out_amount, status, executed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		t.Signature,
		t.PoolAddress,
		t.OutputMint,
		int64(t.InLamports),
		int64(t.OutAmount),
		string(t.Status),
		t.ExecutedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// GetBySignature retrieves a trade by its signature. Returns ErrNotFound if not exists.
func (s *TradeStore) GetBySignature(ctx context.Context, signature string) (*domain.Trade, error) {
	query := `
		SELECT signature, pool_address, output_mint, in_lamports, out_amount, status, executed_at
		FROM trades
		WHERE signature = $1
	`

	var t domain.Trade
	var statusStr string
	var inLamports, outAmount int64

	err := s.pool.QueryRow(ctx, query, signature).Scan(
		&t.Signature,
		&t.PoolAddress,
		&t.OutputMint,
		&inLamports,
		&outAmount,
		&statusStr,
		&t.ExecutedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade by signature: %w", err)
	}

	t.InLamports = uint64(inLamports)
	t.OutAmount = uint64(outAmount)
	t.Status = domain.TradeStatus(statusStr)
	return &t, nil
}

// ListRecent retrieves up to limit trades ordered by execution time DESC.
func (s *TradeStore) ListRecent(ctx context.Context, limit int) ([]*domain.Trade, error) {
	query := `
		SELECT signature, pool_address, output_mint, in_lamports, out_amount, status, executed_at
		FROM trades
		ORDER BY executed_at DESC, signature ASC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent trades: %w", err)
	}
	defer rows.Close()

	var trades []*domain.Trade
	for rows.Next() {
		var t domain.Trade
		var statusStr string
		var inLamports, outAmount int64

		err := rows.Scan(
			&t.Signature,
			&t.PoolAddress,
			&t.OutputMint,
			&inLamports,
			&outAmount,
			&statusStr,
			&t.ExecutedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}

		t.InLamports = uint64(inLamports)
		t.OutAmount = uint64(outAmount)
		t.Status = domain.TradeStatus(statusStr)
		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}
