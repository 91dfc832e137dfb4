package ai

import (
	"context"
	"time"

	"finsight/internal/metrics"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

var _ Invoker = (*Oracle)(nil)

// Oracle is the single point of contact with the hosted model.
// It owns the request spacer shared by every query in the process.
type Oracle struct {
	provider     ChatProvider
	limiter      RateLimiter
	policy       RetryPolicy
	defaultModel string
	maxTokens    int
	log          *logger.Logger
}

// NewOracle wires a provider with a spacer and retry policy. A nil limiter disables spacing.
func NewOracle(provider ChatProvider, limiter RateLimiter, policy RetryPolicy, defaultModel string) *Oracle {
	if limiter == nil {
		limiter = NewNoOpLimiter()
	}
	return &Oracle{
		provider:     provider,
		limiter:      limiter,
		policy:       policy.normalized(),
		defaultModel: defaultModel,
		log:          logger.Get().With("component", "oracle", "provider", provider.Name()),
	}
}

// WithMaxTokens caps the completion length of every call. Zero or less means no cap.
func (o *Oracle) WithMaxTokens(n int) *Oracle {
	o.maxTokens = max(n, 0)
	return o
}

// Invoke sends conv and returns the raw response text.
// Every attempt waits for the spacer first. Rate-limited attempts back off and retry up to
// MaxAttempts; anything else fails at once. Both failures match errors.ErrOracleUnavailable.
func (o *Oracle) Invoke(ctx context.Context, conv Conversation, model string, temperature float64) (string, error) {
	if len(conv) == 0 {
		return "", errors.Wrap(errors.ErrInvalidInput, "empty conversation")
	}
	if model == "" {
		model = o.defaultModel
	}

	provider := o.provider.Name().String()
	start := time.Now()
	req := ChatRequest{Model: model, Messages: conv, Temperature: temperature, MaxTokens: o.maxTokens}

	var lastErr error
	for attempt := 0; attempt < o.policy.MaxAttempts; attempt++ {
		if err := o.limiter.Wait(ctx); err != nil {
			return "", errors.Wrapf(errors.ErrOracleUnavailable, "waiting for request slot: %v", err)
		}

		resp, err := o.provider.Chat(ctx, req)
		if err == nil {
			metrics.RecordOracleAttempt(provider, model, false, nil)
			metrics.RecordOracleInvocation(provider, model, time.Since(start), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
			o.log.Debugw("Oracle call succeeded",
				"model", model,
				"attempts", attempt+1,
				"duration", time.Since(start),
			)
			return resp.Content, nil
		}

		rateLimited := errors.Is(err, errors.ErrRateLimitExceeded)
		metrics.RecordOracleAttempt(provider, model, rateLimited, err)
		lastErr = err

		if !rateLimited {
			metrics.RecordOracleInvocation(provider, model, time.Since(start), 0, 0)
			o.log.Warnw("Oracle call failed", "model", model, "error", err)
			return "", errors.Wrapf(errors.ErrOracleUnavailable, "%s: %v", provider, err)
		}

		// Don't sleep after last attempt
		if attempt == o.policy.MaxAttempts-1 {
			break
		}

		delay := o.policy.Delay(attempt)
		o.log.Warnw("Oracle rate limited, backing off",
			"model", model,
			"attempt", attempt+1,
			"max_attempts", o.policy.MaxAttempts,
			"delay", delay,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", errors.Wrapf(errors.ErrOracleUnavailable, "retry cancelled: %v", ctx.Err())
		case <-timer.C:
		}
	}

	metrics.RecordOracleInvocation(provider, model, time.Since(start), 0, 0)
	o.log.Errorw("Oracle retries exhausted", "model", model, "attempts", o.policy.MaxAttempts, "error", lastErr)
	return "", errors.Wrapf(errors.ErrOracleUnavailable, "max attempts (%d) exceeded: %v", o.policy.MaxAttempts, lastErr)
}
