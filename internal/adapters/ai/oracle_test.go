package ai

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/pkg/errors"
)

// scriptedProvider replays a fixed sequence of outcomes, one per Chat call.
type scriptedProvider struct {
	mu       sync.Mutex
	outcomes []error
	content  string
	requests []ChatRequest
	calledAt []time.Time
}

func (p *scriptedProvider) Name() ProviderName { return ProviderNameOpenAI }

func (p *scriptedProvider) Chat(_ context.Context, req ChatRequest) (*ChatResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, req)
	p.calledAt = append(p.calledAt, time.Now())

	idx := len(p.requests) - 1
	if idx < len(p.outcomes) && p.outcomes[idx] != nil {
		return nil, p.outcomes[idx]
	}
	return &ChatResponse{Content: p.content, Model: req.Model}, nil
}

func (p *scriptedProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

func throttled() error {
	return &RateLimitError{Provider: ProviderNameOpenAI, Err: errors.New("429 Too Many Requests")}
}

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Millisecond, Multiplier: 2, MaxDelay: 10 * time.Millisecond}
}

func TestOracle_InvokeReturnsContent(t *testing.T) {
	provider := &scriptedProvider{content: `{"ok":true}`}
	oracle := NewOracle(provider, nil, fastPolicy(3), "default-model")

	out, err := oracle.Invoke(context.Background(), Conversation{System("sys"), User("hi")}, "", 0.2)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	require.Len(t, provider.requests, 1)
	assert.Equal(t, "default-model", provider.requests[0].Model)
	assert.Equal(t, 0.2, provider.requests[0].Temperature)
	assert.Equal(t, RoleSystem, provider.requests[0].Messages[0].Role)
	assert.Zero(t, provider.requests[0].MaxTokens)
}

func TestOracle_MaxTokensReachesProvider(t *testing.T) {
	provider := &scriptedProvider{content: "ok"}
	oracle := NewOracle(provider, nil, fastPolicy(1), "m").WithMaxTokens(1024)

	_, err := oracle.Invoke(context.Background(), Conversation{User("q")}, "", 0)
	require.NoError(t, err)
	require.Len(t, provider.requests, 1)
	assert.Equal(t, 1024, provider.requests[0].MaxTokens)

	oracle.WithMaxTokens(-5)
	_, err = oracle.Invoke(context.Background(), Conversation{User("q")}, "", 0)
	require.NoError(t, err)
	assert.Zero(t, provider.requests[1].MaxTokens)
}

func TestOracle_RetriesOnlyRateLimits(t *testing.T) {
	provider := &scriptedProvider{
		content:  "done",
		outcomes: []error{throttled(), throttled(), nil},
	}
	oracle := NewOracle(provider, nil, fastPolicy(5), "m")

	out, err := oracle.Invoke(context.Background(), Conversation{User("q")}, "m", 0)
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, 3, provider.calls())
}

func TestOracle_NonRateLimitErrorIsNotRetried(t *testing.T) {
	provider := &scriptedProvider{outcomes: []error{errors.New("invalid api key")}}
	oracle := NewOracle(provider, nil, fastPolicy(5), "m")

	_, err := oracle.Invoke(context.Background(), Conversation{User("q")}, "m", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrOracleUnavailable))
	assert.Equal(t, 1, provider.calls())
}

func TestOracle_ExhaustedRetriesFailWithOracleUnavailable(t *testing.T) {
	provider := &scriptedProvider{outcomes: []error{throttled(), throttled(), throttled()}}
	oracle := NewOracle(provider, nil, fastPolicy(3), "m")

	_, err := oracle.Invoke(context.Background(), Conversation{User("q")}, "m", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrOracleUnavailable))
	assert.Contains(t, err.Error(), "max attempts (3) exceeded")
	assert.Equal(t, 3, provider.calls())
}

func TestOracle_EmptyConversationIsRejected(t *testing.T) {
	provider := &scriptedProvider{}
	oracle := NewOracle(provider, nil, fastPolicy(3), "m")

	_, err := oracle.Invoke(context.Background(), nil, "m", 0)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	assert.Equal(t, 0, provider.calls())
}

func TestOracle_SpacesAttemptsAcrossCallers(t *testing.T) {
	provider := &scriptedProvider{content: "x"}
	interval := 40 * time.Millisecond
	oracle := NewOracle(provider, NewIntervalLimiter(ProviderNameOpenAI, interval), fastPolicy(1), "m")

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := oracle.Invoke(context.Background(), Conversation{User("q")}, "m", 0)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, provider.calledAt, 3)
	first, last := provider.calledAt[0], provider.calledAt[2]
	for _, ts := range provider.calledAt {
		if ts.Before(first) {
			first = ts
		}
		if ts.After(last) {
			last = ts
		}
	}
	// three attempts need at least two full gaps
	assert.GreaterOrEqual(t, last.Sub(first), 2*interval-5*time.Millisecond)
}

func TestOracle_CancelledContextStopsBackoff(t *testing.T) {
	provider := &scriptedProvider{outcomes: []error{throttled(), throttled()}}
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, Multiplier: 2, MaxDelay: time.Second}
	oracle := NewOracle(provider, nil, policy, "m")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := oracle.Invoke(ctx, Conversation{User("q")}, "m", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrOracleUnavailable))
	assert.Equal(t, 1, provider.calls())
}
