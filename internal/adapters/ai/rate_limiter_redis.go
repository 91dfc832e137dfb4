package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"finsight/pkg/errors"
)

// RedisRateLimiter spaces attempts across every process sharing one Redis.
// Each caller reserves the next free slot atomically and sleeps until it.
type RedisRateLimiter struct {
	client     *redis.Client
	provider   ProviderName
	interval   time.Duration
	key        string
	slotScript *redis.Script
}

// KEYS[1] = slot key
// ARGV[1] = now (ms)
// ARGV[2] = interval (ms)
// Returns: milliseconds to wait before the reserved slot starts
const luaReserveSlotScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local interval = tonumber(ARGV[2])

local next_free = tonumber(redis.call('GET', key) or '0')
local slot = math.max(now, next_free)

redis.call('SET', key, slot + interval, 'PX', slot + interval - now + 1000)

return slot - now
`

// NewRedisRateLimiter creates a distributed spacer.
func NewRedisRateLimiter(client *redis.Client, provider ProviderName, interval time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:     client,
		provider:   provider,
		interval:   interval,
		key:        fmt.Sprintf("rate_limit:oracle:%s", provider),
		slotScript: redis.NewScript(luaReserveSlotScript),
	}
}

// Wait reserves a slot and blocks until it starts or the context is cancelled.
func (l *RedisRateLimiter) Wait(ctx context.Context) error {
	if l.interval <= 0 {
		return ctx.Err()
	}

	wait, err := l.reserve(ctx)
	if err != nil {
		return errors.Wrapf(err, "redis rate limiter error for provider %s", l.provider)
	}
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "rate limiter wait cancelled for provider %s", l.provider)
	case <-timer.C:
		return nil
	}
}

// Interval returns the configured spacing.
func (l *RedisRateLimiter) Interval() time.Duration {
	return l.interval
}

// Reset clears the shared slot (useful for testing).
func (l *RedisRateLimiter) Reset(ctx context.Context) error {
	return l.client.Del(ctx, l.key).Err()
}

func (l *RedisRateLimiter) reserve(ctx context.Context) (time.Duration, error) {
	now := time.Now().UnixMilli()

	waitMs, err := l.slotScript.Run(ctx, l.client, []string{l.key}, now, l.interval.Milliseconds()).Int64()
	if err != nil {
		return 0, errors.Wrap(err, "failed to execute slot reservation script")
	}

	return time.Duration(waitMs) * time.Millisecond, nil
}
