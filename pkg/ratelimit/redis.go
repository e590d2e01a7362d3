package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed window counter shared by every instance that talks
// to the same redis. The first hit in a window starts its expiry.
type RedisLimiter struct {
	client    redis.UniversalClient
	limit     int
	window    time.Duration
	keyPrefix string
}

func NewRedisLimiter(client redis.UniversalClient, limit int, window time.Duration, keyPrefix string) *RedisLimiter {
	if keyPrefix == "" {
		keyPrefix = "ratelimit"
	}
	return &RedisLimiter{
		client:    client,
		limit:     limit,
		window:    window,
		keyPrefix: keyPrefix,
	}
}

// Allow implements Limiter. On a redis error the request is allowed and the
// error is returned for logging.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	redisKey := l.keyPrefix + ":" + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit}, fmt.Errorf("incr %s: %w", redisKey, err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return Decision{Allowed: true, Limit: l.limit}, fmt.Errorf("expire %s: %w", redisKey, err)
		}
	}

	if count <= int64(l.limit) {
		return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit - int(count)}, nil
	}

	ttl, err := l.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		// a key left without expiry by a failed EXPIRE would block forever
		if ttl == -1 {
			l.client.Expire(ctx, redisKey, l.window)
		}
		ttl = l.window
	}
	return Decision{Allowed: false, Limit: l.limit, RetryAfter: ttl}, nil
}
