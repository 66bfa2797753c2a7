package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanan544-art/sniper-engine/internal/storage"
)

func TestWhitelistStore_ApproveAndIsApproved(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWhitelistStore(pool)
	ctx := context.Background()

	// Not approved by default
	approved, err := store.IsApproved(ctx, "PoolAddress123")
	require.NoError(t, err)
	assert.False(t, approved)

	// Approve
	err = store.Approve(ctx, "PoolAddress123")
	require.NoError(t, err)

	approved, err = store.IsApproved(ctx, "PoolAddress123")
	require.NoError(t, err)
	assert.True(t, approved)
}

func TestWhitelistStore_ApproveIdempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWhitelistStore(pool)
	ctx := context.Background()

	err := store.Approve(ctx, "pool-idem")
	require.NoError(t, err)

	// Repeated approval hits ON CONFLICT DO NOTHING
	err = store.Approve(ctx, "pool-idem")
	require.NoError(t, err)

	approved, err := store.IsApproved(ctx, "pool-idem")
	require.NoError(t, err)
	assert.True(t, approved)
}

func TestWhitelistStore_ApproveEmptyAddress(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWhitelistStore(pool)
	ctx := context.Background()

	err := store.Approve(ctx, "")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestWhitelistStore_IsolatedPerPool(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWhitelistStore(pool)
	ctx := context.Background()

	err := store.Approve(ctx, "pool-approved")
	require.NoError(t, err)

	approved, err := store.IsApproved(ctx, "pool-other")
	require.NoError(t, err)
	assert.False(t, approved)
}
