package ai

import (
	"math"
	"time"
)

// RetryPolicy is the backoff applied to rate-limited oracle attempts.
// Only throttling is retried; any other provider error fails immediately.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

// DefaultRetryPolicy returns ten attempts starting at one second and doubling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 10,
		BaseDelay:   time.Second,
		Multiplier:  2.0,
		MaxDelay:    2 * time.Minute,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.Multiplier < 1 {
		p.Multiplier = def.Multiplier
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	return p
}

// Delay returns the wait before retry number attempt (0-based):
// BaseDelay * Multiplier^attempt, capped at MaxDelay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt)))

	// Cap at max delay, overflow included
	if delay > p.MaxDelay || delay < 0 {
		delay = p.MaxDelay
	}

	return delay
}
