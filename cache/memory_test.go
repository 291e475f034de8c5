package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemoryStore(t *testing.T, size int) (*MemoryStore, *time.Time) {
	t.Helper()
	m, err := NewMemoryStore(size)
	require.NoError(t, err)
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestMemoryStore_SetGet(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMemoryStore(t, 10)

	require.NoError(t, m.Set(ctx, "a", []byte("1"), time.Minute))

	val, ok, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), val)

	_, ok, err = m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	stats := m.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	m, now := newTestMemoryStore(t, 10)

	require.NoError(t, m.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, m.Set(ctx, "forever", []byte("2"), 0))

	*now = now.Add(time.Minute)

	_, ok, _ := m.Get(ctx, "a")
	assert.False(t, ok, "entry should expire exactly at its ttl")
	assert.Equal(t, 1, m.Len())

	_, ok, _ = m.Get(ctx, "forever")
	assert.True(t, ok)
}

func TestMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMemoryStore(t, 2)

	require.NoError(t, m.Set(ctx, "a", []byte("1"), 0, "t"))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), 0, "t"))
	_, _, _ = m.Get(ctx, "a")
	require.NoError(t, m.Set(ctx, "c", []byte("3"), 0, "t"))

	_, ok, _ := m.Get(ctx, "b")
	assert.False(t, ok)
	assert.Equal(t, uint64(1), m.Stats().Evicted)

	// The evicted key is gone from the tag index too.
	n, err := m.InvalidateTag(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, m.tags)
}

func TestMemoryStore_InvalidateTag(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMemoryStore(t, 10)

	require.NoError(t, m.Set(ctx, "sales:s1:7", []byte("x"), time.Hour, StoreTag("s1")))
	require.NoError(t, m.Set(ctx, "seasonal:s1:monthly", []byte("x"), time.Hour, StoreTag("s1")))
	require.NoError(t, m.Set(ctx, "sales:s2:7", []byte("x"), time.Hour, StoreTag("s2")))

	n, err := m.InvalidateTag(ctx, StoreTag("s1"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok, _ := m.Get(ctx, "sales:s1:7")
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, "sales:s2:7")
	assert.True(t, ok)

	n, err = m.InvalidateTag(ctx, "unknown")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryStore_OverwriteReplacesTags(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMemoryStore(t, 10)

	require.NoError(t, m.Set(ctx, "k", []byte("old"), 0, "old-tag"))
	require.NoError(t, m.Set(ctx, "k", []byte("new"), 0, "new-tag"))

	n, _ := m.InvalidateTag(ctx, "old-tag")
	assert.Zero(t, n)

	val, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("new"), val)
}

func TestNewMemoryStore_InvalidSize(t *testing.T) {
	_, err := NewMemoryStore(0)
	assert.Error(t, err)
}
