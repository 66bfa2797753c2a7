package clickhouse

import (
	"context"
	"fmt"

	"github.com/ethanan544-art/sniper-engine/internal/domain"
	"github.com/ethanan544-art/sniper-engine/internal/storage"
)

// LedgerStore implements storage.LedgerStore using ClickHouse.
// The pipeline ledger is insert-only; MergeTree suits the access pattern.
type LedgerStore struct {
	conn *Conn
}

// NewLedgerStore creates a new LedgerStore.
func NewLedgerStore(conn *Conn) *LedgerStore {
	return &LedgerStore{conn: conn}
}

// Compile-time interface check.
var _ storage.LedgerStore = (*LedgerStore)(nil)

// Append adds one ledger row.
func (s *LedgerStore) Append(ctx context.Context, e *domain.LedgerEvent) error {
	if e == nil || e.Kind == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO pipeline_ledger (kind, pool_address, detail, timestamp_ms)
		VALUES (?, ?, ?, ?)
	`

	if err := s.conn.Exec(ctx, query, string(e.Kind), e.PoolAddress, e.Detail, uint64(e.Timestamp)); err != nil {
		return fmt.Errorf("append ledger event: %w", err)
	}
	return nil
}

// ListRecent retrieves up to limit rows ordered by timestamp DESC.
func (s *LedgerStore) ListRecent(ctx context.Context, limit int) ([]*domain.LedgerEvent, error) {
	query := `
		SELECT kind, pool_address, detail, timestamp_ms
		FROM pipeline_ledger
		ORDER BY timestamp_ms DESC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent ledger events: %w", err)
	}
	defer rows.Close()

	var events []*domain.LedgerEvent
	for rows.Next() {
		var e domain.LedgerEvent
		var kind string
		var ts uint64

		if err := rows.Scan(&kind, &e.PoolAddress, &e.Detail, &ts); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}

		e.Kind = domain.LedgerEventKind(kind)
		e.Timestamp = int64(ts)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger rows: %w", err)
	}

	return events, nil
}
