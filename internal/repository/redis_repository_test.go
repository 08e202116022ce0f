package repository_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagechat/backend/internal/repository"
)

func TestRedisKV(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	kv := repository.NewRedisKV(rdb, "pagechat:")

	_, err := kv.Get(ctx, "k")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, kv.Set(ctx, "k", []byte("v1")))
	val, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), val)

	// Keys are namespaced.
	raw, err := mr.Get("pagechat:k")
	require.NoError(t, err)
	assert.Equal(t, "v1", raw)

	require.NoError(t, kv.Remove(ctx, "k"))
	require.NoError(t, kv.Remove(ctx, "k"))
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRedisKV_BackendDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer func() { _ = rdb.Close() }()
	mr.Close()

	store := repository.NewConversationStore(repository.NewRedisKV(rdb, ""))
	_, err := store.List(context.Background())
	assert.Error(t, err)
}
