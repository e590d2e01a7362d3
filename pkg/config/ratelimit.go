package config

// Rate limiter backends
const (
	RateLimitMemory = "memory"
	RateLimitRedis  = "redis"
)

// RateLimitConfig covers the limiter in front of login and registration.
// The memory backend is a token bucket per client IP; the redis backend is a
// fixed window counter shared across instances.
type RateLimitConfig struct {
	Enabled bool   `env:"RATELIMIT_ENABLED" env-default:"true"`
	Backend string `env:"RATELIMIT_BACKEND" env-default:"memory"`

	// Token bucket: 10 attempts, refilled at one every 6 seconds
	Capacity   int     `env:"RATELIMIT_CAPACITY" env-default:"10"`
	RefillRate float64 `env:"RATELIMIT_REFILL_RATE" env-default:"0.167"`

	// Fixed window for the redis backend
	Window      string `env:"RATELIMIT_WINDOW" env-default:"1m"`
	WindowLimit int    `env:"RATELIMIT_WINDOW_LIMIT" env-default:"10"`

	IncludeHeaders bool `env:"RATELIMIT_INCLUDE_HEADERS" env-default:"true"`
}

// RedisConfig locates the redis server used by the redis limiter backend
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

func (r RateLimitConfig) validate() ValidationErrors {
	if !r.Enabled {
		return nil
	}
	errs := CollectErrors(RequireOneOf("RATELIMIT_BACKEND", r.Backend, []string{RateLimitMemory, RateLimitRedis}))
	if r.Backend == RateLimitRedis {
		return append(errs, CollectErrors(
			RequireDuration("RATELIMIT_WINDOW", r.Window),
			RequirePositive("RATELIMIT_WINDOW_LIMIT", r.WindowLimit),
		)...)
	}
	return append(errs, CollectErrors(
		RequirePositive("RATELIMIT_CAPACITY", r.Capacity),
		RequirePositiveFloat("RATELIMIT_REFILL_RATE", r.RefillRate),
	)...)
}
