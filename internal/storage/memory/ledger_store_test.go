package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/ethanan544-art/sniper-engine/internal/domain"
	"github.com/ethanan544-art/sniper-engine/internal/storage"
)

func TestLedgerStore_AppendAndList(t *testing.T) {
	store := NewLedgerStore()
	ctx := context.Background()

	events := []*domain.LedgerEvent{
		{Kind: domain.LedgerPoolObserved, PoolAddress: "pool1", Detail: "slot=1", Timestamp: 1000},
		{Kind: domain.LedgerVerdict, PoolAddress: "pool1", Detail: "score=85", Timestamp: 2000},
		{Kind: domain.LedgerTradeExecuted, PoolAddress: "pool1", Detail: "signature=sig1", Timestamp: 3000},
	}

	for _, e := range events {
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	result, err := store.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(result))
	}
	// Newest first.
	if result[0].Kind != domain.LedgerTradeExecuted {
		t.Errorf("First result should be trade_executed, got %s", result[0].Kind)
	}
	if result[1].Kind != domain.LedgerVerdict {
		t.Errorf("Second result should be verdict, got %s", result[1].Kind)
	}
}

func TestLedgerStore_ListAll(t *testing.T) {
	store := NewLedgerStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		e := &domain.LedgerEvent{Kind: domain.LedgerPoolObserved, Timestamp: int64(i)}
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	result, err := store.ListRecent(ctx, 0)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(result) != 5 {
		t.Errorf("Expected 5 results, got %d", len(result))
	}
}

func TestLedgerStore_InvalidInput(t *testing.T) {
	store := NewLedgerStore()
	ctx := context.Background()

	if err := store.Append(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}

	if err := store.Append(ctx, &domain.LedgerEvent{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty kind, got %v", err)
	}
}
