package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-chronicle/internal/domain"
	"wallet-chronicle/internal/storage"
)

func TestStateStore_SaveAndLoad(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewStateStore(pool)

	state := domain.NewAnalysisState()
	state.ChunkIndex = 3
	state.ChronologyParts = []domain.ChronologyPart{"part one", "part two"}
	state.ProcessedTxKeys = []string{"a", "b"}
	state.PendingTxKeys = []string{"c"}
	state.CompressionCache.Groups["abc123"] = "digest"

	require.NoError(t, store.SaveState(ctx, "0xWallet", state))

	// Lookup is case-insensitive.
	got, err := store.LoadState(ctx, "0xwallet")
	require.NoError(t, err)

	assert.Equal(t, 3, got.ChunkIndex)
	assert.Equal(t, state.ChronologyParts, got.ChronologyParts)
	assert.Equal(t, state.ProcessedTxKeys, got.ProcessedTxKeys)
	assert.Equal(t, state.PendingTxKeys, got.PendingTxKeys)
	assert.Equal(t, "digest", got.CompressionCache.Groups["abc123"])
}

func TestStateStore_LoadNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewStateStore(pool)
	_, err := store.LoadState(context.Background(), "0xnobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStateStore_SaveOverwrites(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewStateStore(pool)

	first := domain.NewAnalysisState()
	first.ChunkIndex = 1
	require.NoError(t, store.SaveState(ctx, "0xwallet", first))

	second := domain.NewAnalysisState()
	second.ChunkIndex = 0
	second.ProcessedTxKeys = []string{"a", "b", "c"}
	require.NoError(t, store.SaveState(ctx, "0xwallet", second))

	got, err := store.LoadState(ctx, "0xwallet")
	require.NoError(t, err)
	assert.Equal(t, 0, got.ChunkIndex)
	assert.Len(t, got.ProcessedTxKeys, 3)
}

func TestStateStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewStateStore(pool)

	assert.ErrorIs(t, store.SaveState(ctx, "", domain.NewAnalysisState()), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.SaveState(ctx, "0xwallet", nil), storage.ErrInvalidInput)

	_, err := store.LoadState(ctx, "")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
