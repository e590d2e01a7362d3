package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tendant/account-idm/pkg/config"
)

const bucketTTL = time.Hour

// NewFromConfig builds the limiter selected by cfg.Backend. The returned
// close function releases the limiter's resources.
func NewFromConfig(ctx context.Context, cfg config.RateLimitConfig, redisCfg config.RedisConfig) (Limiter, func() error, error) {
	switch cfg.Backend {
	case "", config.RateLimitMemory:
		m := NewMemoryLimiter(cfg.Capacity, cfg.RefillRate, bucketTTL)
		return m, m.Close, nil
	case config.RateLimitRedis:
		window, err := config.ParseDuration(cfg.Window)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid RATELIMIT_WINDOW: %w", err)
		}
		client := redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", redisCfg.Addr, err)
		}
		return NewRedisLimiter(client, cfg.WindowLimit, window, "account-idm:ratelimit"), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported rate limit backend: %s", cfg.Backend)
	}
}
