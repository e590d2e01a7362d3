package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// Decision is the outcome of one rate limit check
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration // set when Allowed is false
}

// Limiter decides whether a request identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// TokenBucket implements the token bucket algorithm for rate limiting
type TokenBucket struct {
	capacity   int       // Maximum number of tokens
	tokens     float64   // Current number of tokens
	refillRate float64   // Tokens added per second
	lastRefill time.Time // Last time tokens were refilled
	mu         sync.Mutex
}

// NewTokenBucket creates a full bucket at now
// capacity: Maximum number of requests allowed in a burst
// refillRate: Number of requests allowed per second
func NewTokenBucket(capacity int, refillRate float64, now time.Time) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastRefill: now,
	}
}

// Take refills the bucket up to now and consumes one token if available.
// When denied, the returned duration is the wait until the next token.
func (tb *TokenBucket) Take(now time.Time) (bool, int, time.Duration) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if elapsed := now.Sub(tb.lastRefill).Seconds(); elapsed > 0 {
		tb.tokens = math.Min(float64(tb.capacity), tb.tokens+elapsed*tb.refillRate)
		tb.lastRefill = now
	}

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true, int(tb.tokens), 0
	}

	var wait time.Duration
	if tb.refillRate > 0 {
		wait = time.Duration((1.0 - tb.tokens) / tb.refillRate * float64(time.Second))
	}
	return false, 0, wait
}

// Tokens returns the current number of available tokens
func (tb *TokenBucket) Tokens() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.tokens
}

func (tb *TokenBucket) idleSince() time.Time {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.lastRefill
}

// MemoryLimiter keeps one token bucket per key in process memory
type MemoryLimiter struct {
	buckets    map[string]*TokenBucket
	capacity   int
	refillRate float64
	ttl        time.Duration // Time to keep inactive buckets
	now        func() time.Time
	mu         sync.Mutex
	stop       chan struct{}
	stopOnce   sync.Once
}

// MemoryOption configures a MemoryLimiter
type MemoryOption func(*MemoryLimiter)

// WithClock replaces time.Now
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryLimiter) {
		m.now = now
	}
}

// NewMemoryLimiter creates an in-process limiter. Buckets idle for longer
// than ttl are dropped by a background sweep; ttl 0 keeps them forever.
func NewMemoryLimiter(capacity int, refillRate float64, ttl time.Duration, opts ...MemoryOption) *MemoryLimiter {
	m := &MemoryLimiter{
		buckets:    make(map[string]*TokenBucket),
		capacity:   capacity,
		refillRate: refillRate,
		ttl:        ttl,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	if ttl > 0 {
		go m.cleanup()
	}
	return m
}

// Allow implements Limiter. It never fails.
func (m *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	bucket, exists := m.buckets[key]
	if !exists {
		bucket = NewTokenBucket(m.capacity, m.refillRate, now)
		m.buckets[key] = bucket
	}
	m.mu.Unlock()

	allowed, remaining, wait := bucket.Take(now)
	return Decision{Allowed: allowed, Limit: m.capacity, Remaining: remaining, RetryAfter: wait}, nil
}

// Reset removes the bucket for key, restoring its full capacity
func (m *MemoryLimiter) Reset(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buckets, key)
}

// ActiveBuckets returns the number of keys currently tracked
func (m *MemoryLimiter) ActiveBuckets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}

// Close stops the background sweep
func (m *MemoryLimiter) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	return nil
}

func (m *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(m.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *MemoryLimiter) evictIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for key, bucket := range m.buckets {
		if now.Sub(bucket.idleSince()) > m.ttl {
			delete(m.buckets, key)
		}
	}
}
