package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// RedisLimiter is a fixed-window counter shared by every instance pointing
// at the same Redis.
type RedisLimiter struct {
	client redis.Cmdable
}

// NewRedisLimiter creates a limiter over client.
func NewRedisLimiter(client redis.Cmdable) *RedisLimiter {
	return &RedisLimiter{client: client}
}

// Allow increments the window counter for key. The first hit of a window
// sets its expiry.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	key = keyPrefix + key

	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	// A key without expiry is a fresh window, or one whose PEXPIRE was lost.
	resetAfter := ttl.Val()
	if resetAfter < 0 {
		if err := l.client.PExpire(ctx, key, window).Err(); err != nil {
			return Decision{}, fmt.Errorf("rate limit %s: set window: %w", key, err)
		}
		resetAfter = window
	}
	return decide(incr.Val(), limit, resetAfter), nil
}
