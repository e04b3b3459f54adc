package kv

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trackwave/presenced/internal/common/config"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	store, err := NewRedisStore(zap.NewNop(), config.StoreConfig{
		Type:   "redis",
		Prefix: "testpresence",
		Redis:  config.RedisConfig{Addr: mr.Addr()},
	})
	if err != nil {
		t.Fatalf("failed to create RedisStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestNewRedisStore_ConnectionError(t *testing.T) {
	s, err := NewRedisStore(zap.NewNop(), config.StoreConfig{
		Redis: config.RedisConfig{Addr: "127.0.0.1:0"},
	})
	assert.Nil(t, s)
	assert.Error(t, err)
}

func TestRedisStore_SetGetDelete(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	// Missing key is not an error
	_, ok, err := store.Get(ctx, "connection.alice")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "connection.alice", "conn-1", time.Hour))
	val, ok, err := store.Get(ctx, "connection.alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "conn-1", val)

	// Keys are namespaced under the configured prefix
	assert.True(t, mr.Exists("testpresence:connection.alice"))

	require.NoError(t, store.Delete(ctx, "connection.alice"))
	_, ok, err = store.Get(ctx, "connection.alice")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing key is a no-op
	assert.NoError(t, store.Delete(ctx, "connection.alice"))
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "sequence.alice", "42", 30*time.Second))
	mr.FastForward(31 * time.Second)

	_, ok, err := store.Get(ctx, "sequence.alice")
	require.NoError(t, err)
	assert.False(t, ok)
}
