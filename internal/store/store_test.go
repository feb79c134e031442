package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/BradenHooton/posauth/internal/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGetRemove(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	assert.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", "v"))
	v, ok, err := s.Get(ctx, "k")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	require.NoError(t, s.Set(ctx, "k", "v2"))
	v, _, _ = s.Get(ctx, "k")
	assert.Equal(t, "v2", v)

	require.NoError(t, s.Remove(ctx, "k"))
	_, ok, _ = s.Get(ctx, "k")
	assert.False(t, ok)
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "posauth.json")
	ctx := context.Background()

	s, err := store.NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "device_id", "abc123"))
	require.NoError(t, s.Set(ctx, "other", "x"))
	require.NoError(t, s.Remove(ctx, "other"))

	reopened, err := store.NewFileStore(path)
	require.NoError(t, err)

	v, ok, err := reopened.Get(ctx, "device_id")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", v)

	_, ok, _ = reopened.Get(ctx, "other")
	assert.False(t, ok)
}

func TestFileStore_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posauth.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s, err := store.NewFileStore(path)
	require.NoError(t, err)

	_, ok, err := s.Get(context.Background(), "anything")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_SetGetRemove(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := store.NewRedisStore(client, "test")
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	assert.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", "v"))
	v, ok, err := s.Get(ctx, "k")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	// Keys are prefixed so unrelated deployments do not collide
	assert.True(t, mr.Exists("test:k"))

	require.NoError(t, s.Remove(ctx, "k"))
	_, ok, _ = s.Get(ctx, "k")
	assert.False(t, ok)
}
