package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis, for deployments with more
// than one service instance. Each window is a counter with a TTL; the
// INCR and EXPIRE run in one pipeline so the first hit always arms the
// expiry.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisStore creates a Redis-backed fixed-window store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, keyPrefix: "ratelimit:"}
}

func (rs *RedisStore) Incr(ctx context.Context, key string, windowSize time.Duration) (int64, time.Time, error) {
	redisKey := rs.keyPrefix + key

	pipe := rs.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, windowSize)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, fmt.Errorf("redis rate limit incr: %w", err)
	}

	resetAt := time.Now().Add(ttl.Val())
	return incr.Val(), resetAt, nil
}

func (rs *RedisStore) Reset(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, rs.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis rate limit reset: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
