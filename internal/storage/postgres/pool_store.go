package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ethanan544-art/sniper-engine/internal/domain"
	"github.com/ethanan544-art/sniper-engine/internal/storage"
)

// PoolStore implements storage.PoolStore using PostgreSQL.
type PoolStore struct {
	pool *Pool
}

// NewPoolStore creates a new PoolStore.
func NewPoolStore(pool *Pool) *PoolStore {
	return &PoolStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PoolStore = (*PoolStore)(nil)

// Create adds a new pool. Returns ErrDuplicateKey if the address exists.
func (s *PoolStore) Create(ctx context.Context, p *domain.Pool) error {
	query := `
		INSERT INTO pools (
			address, base_mint, quote_mint, liquidity, slot, tx_signature, detected_at, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		p.Address,
		p.BaseMint,
		p.QuoteMint,
		p.Liquidity,
		p.Slot,
		p.TxSignature,
		p.DetectedAt,
		string(p.Status),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert pool: %w", err)
	}
	return nil
}

// GetByAddress retrieves a pool by its address. Returns ErrNotFound if not exists.
func (s *PoolStore) GetByAddress(ctx context.Context, address string) (*domain.Pool, error) {
	query := `
		SELECT address, base_mint, quote_mint, liquidity, slot, tx_signature, detected_at, status, risk_score, risk_rationale
		FROM pools
		WHERE address = $1
	`

	row := s.pool.QueryRow(ctx, query, address)
	p, err := scanPool(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pool by address: %w", err)
	}
	return p, nil
}

// SetVerdict records the risk-scoring outcome for a pool.
func (s *PoolStore) SetVerdict(ctx context.Context, address string, status domain.PoolStatus, score int, rationale string) error {
	query := `
		UPDATE pools
		SET status = $2, risk_score = $3, risk_rationale = $4
		WHERE address = $1
	`

	tag, err := s.pool.Exec(ctx, query, address, string(status), score, rationale)
	if err != nil {
		return fmt.Errorf("set pool verdict: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListRecent retrieves up to limit pools ordered by detection time DESC.
func (s *PoolStore) ListRecent(ctx context.Context, limit int) ([]*domain.Pool, error) {
	query := `
		SELECT address, base_mint, quote_mint, liquidity, slot, tx_signature, detected_at, status, risk_score, risk_rationale
		FROM pools
		ORDER BY detected_at DESC, address ASC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent pools: %w", err)
	}
	defer rows.Close()

	return scanPools(rows)
}

// scanPool scans a single row into a Pool.
func scanPool(row pgx.Row) (*domain.Pool, error) {
	var p domain.Pool
	var statusStr string

	err := row.Scan(
		&p.Address,
		&p.BaseMint,
		&p.QuoteMint,
		&p.Liquidity,
		&p.Slot,
		&p.TxSignature,
		&p.DetectedAt,
		&statusStr,
		&p.RiskScore,
		&p.RiskRationale,
	)
	if err != nil {
		return nil, err
	}

	p.Status = domain.PoolStatus(statusStr)
	return &p, nil
}

// scanPools scans multiple rows into a slice of Pool.
func scanPools(rows pgx.Rows) ([]*domain.Pool, error) {
	var pools []*domain.Pool

	for rows.Next() {
		var p domain.Pool
		var statusStr string

		err := rows.Scan(
			&p.Address,
			&p.BaseMint,
			&p.QuoteMint,
			&p.Liquidity,
			&p.Slot,
			&p.TxSignature,
			&p.DetectedAt,
			&statusStr,
			&p.RiskScore,
			&p.RiskRationale,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pool row: %w", err)
		}

		p.Status = domain.PoolStatus(statusStr)
		pools = append(pools, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pool rows: %w", err)
	}

	return pools, nil
}
