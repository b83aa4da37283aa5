// Package ratelimit implements a fixed-window request limiter with
// pluggable storage backends and an HTTP middleware that keys requests
// by client IP. The auth routes sit behind it to slow down credential
// stuffing and token guessing.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidConfig    = errors.New("invalid rate limit configuration")
	ErrStoreUnavailable = errors.New("rate limit store unavailable")
)

// Store counts hits per key within a fixed window.
type Store interface {
	// Incr records one hit against key and returns the total for the
	// current window together with the window's reset time.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)

	// Reset clears the counter for key.
	Reset(ctx context.Context, key string) error
}

// Config defines the fixed-window parameters.
type Config struct {
	Limit  int           `env:"RATE_LIMIT_REQUESTS" envDefault:"30"`
	Window time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// Result describes the outcome of a single limiter check.
type Result struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Allowed reports whether the request fit inside the window.
func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter returns how long to wait before retrying, or 0 when the
// request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Limiter applies a fixed-window limit on top of a Store.
type Limiter struct {
	store  Store
	config Config
}

// NewLimiter validates the configuration and creates a limiter.
func NewLimiter(store Store, config Config) (*Limiter, error) {
	if config.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidConfig, config.Limit)
	}
	if config.Window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive, got %v", ErrInvalidConfig, config.Window)
	}
	return &Limiter{store: store, config: config}, nil
}

// Allow records a hit for key and reports whether it stayed within the
// window's limit.
func (l *Limiter) Allow(ctx context.Context, key string) (*Result, error) {
	count, resetAt, err := l.store.Incr(ctx, key, l.config.Window)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return &Result{
		Limit:     l.config.Limit,
		Remaining: l.config.Limit - int(count),
		ResetAt:   resetAt,
	}, nil
}

// Reset clears the counter for key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.store.Reset(ctx, key)
}
