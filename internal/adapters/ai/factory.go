package ai

import (
	"context"

	"github.com/redis/go-redis/v9"

	"finsight/internal/adapters/config"
	"finsight/pkg/errors"
)

// BuildProvider creates the chat provider selected by configuration.
func BuildProvider(ctx context.Context, cfg config.OracleConfig) (ChatProvider, error) {
	switch NormalizeProviderName(cfg.Provider) {
	case ProviderNameOpenAI:
		return NewOpenAIProvider(cfg.OpenAIKey, cfg.BaseURL, cfg.Timeout)
	case ProviderNameGoogle:
		return NewGeminiProvider(ctx, cfg.GeminiKey, cfg.Timeout)
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unsupported oracle provider %q", cfg.Provider)
	}
}

// BuildRateLimiter picks the spacer for the provider.
// redisClient is optional - if provided and distributed spacing is enabled, every pod shares one slot timeline.
// Otherwise spacing is local to this process (suitable for single-pod deployment).
func BuildRateLimiter(cfg config.OracleConfig, provider ProviderName, redisClient *redis.Client) RateLimiter {
	if cfg.MinRequestInterval <= 0 {
		return NewNoOpLimiter()
	}
	if cfg.DistributedSpacing && redisClient != nil {
		return NewRedisRateLimiter(redisClient, provider, cfg.MinRequestInterval)
	}
	return NewIntervalLimiter(provider, cfg.MinRequestInterval)
}

// BuildOracle assembles the provider, spacer and retry policy from configuration.
func BuildOracle(ctx context.Context, cfg config.OracleConfig, redisClient *redis.Client) (*Oracle, error) {
	provider, err := BuildProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	policy := RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		Multiplier:  cfg.Retry.Multiplier,
		MaxDelay:    cfg.Retry.MaxDelay,
	}

	limiter := BuildRateLimiter(cfg, provider.Name(), redisClient)
	return NewOracle(provider, limiter, policy, cfg.DefaultModel).WithMaxTokens(cfg.MaxTokens), nil
}
