package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

type redisKV struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisKV returns a KVStore that keeps every key under prefix.
func NewRedisKV(rdb *redis.Client, prefix string) KVStore {
	return &redisKV{rdb: rdb, prefix: prefix}
}

func (r *redisKV) key(k string) string { return r.prefix + k }

func (r *redisKV) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return val, nil
}

func (r *redisKV) Set(ctx context.Context, key string, value []byte) error {
	return r.rdb.Set(ctx, r.key(key), value, 0).Err()
}

func (r *redisKV) Remove(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.key(key)).Err()
}
