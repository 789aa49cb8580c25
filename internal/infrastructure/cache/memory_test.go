package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreReserveIsExclusive(t *testing.T) {
	store := NewMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	ok, err := store.Reserve(ctx, "tenant-a:import-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Reserve(ctx, "tenant-a:import-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	held, err := store.Held(ctx, "tenant-a:import-1")
	require.NoError(t, err)
	assert.True(t, held)

	// same key under a different tenant prefix is independent
	ok, err = store.Reserve(ctx, "tenant-b:import-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	ok, err := store.Reserve(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	held, err := store.Held(ctx, "k")
	require.NoError(t, err)
	assert.False(t, held)

	ok, err = store.Reserve(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreCloseIsIdempotent(t *testing.T) {
	store := NewMemoryIdempotencyStore()
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
