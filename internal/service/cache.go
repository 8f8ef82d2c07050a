package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the expiring key-value store behind the login rate limiter
// and the monthly usage counters. It is injected explicitly so both
// components can be exercised with an in-memory fake; production wires
// the Redis implementation below. Losing the cache (restart, eviction)
// silently resets counters, which is accepted degradation.
type Cache interface {
	// GetInt returns the counter at key and whether it exists.
	GetInt(ctx context.Context, key string) (int, bool, error)
	// SetInt stores a counter with a fresh TTL.
	SetInt(ctx context.Context, key string, val int, ttl time.Duration) error
	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// RedisCache adapts a go-redis client to the Cache interface.
type RedisCache struct{ RDB *redis.Client }

func NewRedisCache(rdb *redis.Client) *RedisCache { return &RedisCache{RDB: rdb} }

func (c *RedisCache) GetInt(ctx context.Context, key string) (int, bool, error) {
	n, err := c.RDB.Get(ctx, key).Int()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (c *RedisCache) SetInt(ctx context.Context, key string, val int, ttl time.Duration) error {
	return c.RDB.Set(ctx, key, val, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.RDB.Del(ctx, key).Err()
}
