package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/fyrekit/streamauth/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBunStore(t *testing.T) *store.Bun {
	t.Helper()
	b, err := store.NewBun(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBunRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := newBunStore(t)

	require.NoError(t, b.Set(ctx, "k", []byte("v"), time.Time{}))

	value, ok, err := b.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), value)

	_, ok, err = b.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBunUpsert(t *testing.T) {
	ctx := context.Background()
	b := newBunStore(t)

	require.NoError(t, b.Set(ctx, "k", []byte("first"), time.Time{}))
	require.NoError(t, b.Set(ctx, "k", []byte("second"), time.Time{}))

	value, ok, err := b.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("second"), value)
}

func TestBunExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2015, 3, 10, 12, 0, 0, 0, time.UTC)
	b := newBunStore(t).WithClock(func() time.Time { return now })

	require.NoError(t, b.Set(ctx, "k", []byte("v"), now.Add(time.Hour)))

	_, ok, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Hour)
	_, ok, err = b.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// Expired entries are removed, not just hidden.
	now = now.Add(-2 * time.Hour)
	_, ok, err = b.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBunRemove(t *testing.T) {
	ctx := context.Background()
	b := newBunStore(t)

	require.NoError(t, b.Set(ctx, "k", []byte("v"), time.Time{}))
	require.NoError(t, b.Remove(ctx, "k"))

	_, ok, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
