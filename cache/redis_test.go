package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	store, err := NewRedisStore(s.Addr(), 0, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, s
}

func TestRedisStore_SetGet(t *testing.T) {
	ctx := context.Background()
	store, s := newTestRedisStore(t)

	require.NoError(t, store.Set(ctx, "sales:s1:7", []byte(`{"a":1}`), time.Hour, StoreTag("s1")))

	val, ok, err := store.Get(ctx, "sales:s1:7")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(val))

	assert.True(t, s.Exists("analytics:cache:sales:s1:7"))
	assert.Equal(t, time.Hour, s.TTL("analytics:cache:sales:s1:7"))
	members, err := s.Members("analytics:tag:store:s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"analytics:cache:sales:s1:7"}, members)

	_, ok, err = store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store, s := newTestRedisStore(t)

	require.NoError(t, store.Set(ctx, "stockout:p1", []byte("x"), 30*time.Minute))
	s.FastForward(31 * time.Minute)

	_, ok, err := store.Get(ctx, "stockout:p1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_InvalidateTag(t *testing.T) {
	ctx := context.Background()
	store, s := newTestRedisStore(t)

	require.NoError(t, store.Set(ctx, "stockout:p1", []byte("x"), time.Hour, ProductTag("p1")))
	require.NoError(t, store.Set(ctx, "demand:p1", []byte("x"), time.Hour, ProductTag("p1")))
	require.NoError(t, store.Set(ctx, "demand:p2", []byte("x"), time.Hour, ProductTag("p2")))

	n, err := store.InvalidateTag(ctx, ProductTag("p1"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.False(t, s.Exists("analytics:cache:stockout:p1"))
	assert.False(t, s.Exists("analytics:tag:product:p1"))
	assert.True(t, s.Exists("analytics:cache:demand:p2"))

	n, err = store.InvalidateTag(ctx, ProductTag("p1"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	_, err := NewRedisStore(addr, 0, "")
	assert.Error(t, err)
}

func TestRedisStore_FromClient(t *testing.T) {
	s := miniredis.RunT(t)
	store := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: s.Addr()}))
	defer store.Close()

	require.NoError(t, store.Set(context.Background(), "k", []byte("v"), 0))
	got, err := s.Get("analytics:cache:k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}
