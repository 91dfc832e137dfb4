package ai

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"finsight/pkg/errors"
)

// RateLimiter spaces outbound oracle attempts.
type RateLimiter interface {
	// Wait blocks until the next attempt may start or ctx is done.
	Wait(ctx context.Context) error

	// Interval returns the minimum spacing between attempt starts.
	Interval() time.Duration
}

// IntervalLimiter guarantees a minimum gap between attempt starts inside one process.
// A token bucket with burst 1 refilling every interval gives exactly that.
type IntervalLimiter struct {
	limiter  *rate.Limiter
	interval time.Duration
	provider ProviderName
}

// NewIntervalLimiter creates an in-process spacer. A non-positive interval disables spacing.
func NewIntervalLimiter(provider ProviderName, interval time.Duration) *IntervalLimiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &IntervalLimiter{
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
		provider: provider,
	}
}

// Wait blocks until an attempt slot is available or context is cancelled.
func (l *IntervalLimiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(err, "rate limiter wait cancelled for provider %s", l.provider)
	}
	return nil
}

// Interval returns the configured spacing.
func (l *IntervalLimiter) Interval() time.Duration {
	return l.interval
}

// NoOpLimiter is a rate limiter that never blocks (for testing or disabled rate limiting).
type NoOpLimiter struct{}

// NewNoOpLimiter creates a no-op rate limiter.
func NewNoOpLimiter() *NoOpLimiter {
	return &NoOpLimiter{}
}

// Wait returns immediately unless the context is already done.
func (l *NoOpLimiter) Wait(ctx context.Context) error {
	return ctx.Err()
}

// Interval returns zero.
func (l *NoOpLimiter) Interval() time.Duration {
	return 0
}

// RateLimitError reports provider throttling. It matches errors.ErrRateLimitExceeded.
type RateLimitError struct {
	Provider ProviderName
	Err      error
}

// Error implements error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by provider %s: %v", e.Provider, e.Err)
}

// Is reports whether target is the rate limit sentinel.
func (e *RateLimitError) Is(target error) bool {
	return target == errors.ErrRateLimitExceeded
}

// Unwrap returns the underlying error.
func (e *RateLimitError) Unwrap() error {
	return e.Err
}
