package ratelimit

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/tendant/account-idm/pkg/errors"
)

// Middleware throttles requests per client IP
type Middleware struct {
	limiter Limiter
	// includeHeaders adds X-RateLimit-* headers to allowed responses
	includeHeaders bool
}

// NewMiddleware creates a new rate limiting middleware
func NewMiddleware(limiter Limiter, includeHeaders bool) *Middleware {
	return &Middleware{
		limiter:        limiter,
		includeHeaders: includeHeaders,
	}
}

// Handler returns the rate limiting middleware handler. Buckets are keyed by
// client IP and route so login and register are counted separately.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getClientIP(r)
		key := ip + ":" + r.Method + " " + r.URL.Path

		decision, err := m.limiter.Allow(r.Context(), key)
		if err != nil {
			slog.Error("Rate limiter unavailable, allowing request", "error", err, "ip", ip)
		}

		if !decision.Allowed {
			m.rateLimitExceeded(w, r, ip, decision)
			return
		}

		if m.includeHeaders {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) rateLimitExceeded(w http.ResponseWriter, r *http.Request, ip string, decision Decision) {
	slog.Warn("Rate limit exceeded",
		"ip", ip,
		"path", r.URL.Path,
		"method", r.Method,
		"retryAfter", decision.RetryAfter,
	)

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(decision)))
	errors.RenderError(w, r, errors.RateLimitExceeded())
}

// retryAfterSeconds rounds up to whole seconds, never below one
func retryAfterSeconds(d Decision) int {
	secs := int(math.Ceil(d.RetryAfter.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (set by proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is in format "IP:port", we only want the IP
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
