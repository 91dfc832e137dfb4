package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"finsight/internal/domain/financial"
	"finsight/pkg/errors"
)

// Compile-time check
var _ financial.Cache = (*StatementCache)(nil)

// StatementCache implements financial.Cache using Redis
type StatementCache struct {
	client *redis.Client
}

// NewStatementCache creates a new statement cache
func NewStatementCache(client *redis.Client) *StatementCache {
	return &StatementCache{client: client}
}

// cachedStatement carries the fields Statement hides from its public JSON form
type cachedStatement struct {
	ID        uuid.UUID        `json:"id"`
	Ticker    string           `json:"ticker"`
	Kind      financial.Kind   `json:"kind"`
	Year      string           `json:"year"`
	Data      financial.Fields `json:"data"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Get retrieves a cached statement
func (c *StatementCache) Get(ctx context.Context, key financial.Key) (*financial.Statement, error) {
	data, err := c.client.Get(ctx, c.getKey(key)).Bytes()
	if err == redis.Nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "statement %s not cached", key)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get statement from redis: %s", key)
	}

	var cached cachedStatement
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal cached statement: %s", key)
	}

	return &financial.Statement{
		ID:        cached.ID,
		Ticker:    cached.Ticker,
		Kind:      cached.Kind,
		Year:      cached.Year,
		Data:      cached.Data,
		CreatedAt: cached.CreatedAt,
		UpdatedAt: cached.UpdatedAt,
	}, nil
}

// Set stores a statement with TTL
func (c *StatementCache) Set(ctx context.Context, s *financial.Statement, ttl time.Duration) error {
	key := financial.Key{Ticker: s.Ticker, Kind: s.Kind, Year: s.Year}

	data, err := json.Marshal(cachedStatement{
		ID:        s.ID,
		Ticker:    s.Ticker,
		Kind:      s.Kind,
		Year:      s.Year,
		Data:      s.Data,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to marshal statement: %s", key)
	}

	if err := c.client.Set(ctx, c.getKey(key), data, ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to cache statement: %s", key)
	}
	return nil
}

// Invalidate drops a cached statement
func (c *StatementCache) Invalidate(ctx context.Context, key financial.Key) error {
	if err := c.client.Del(ctx, c.getKey(key)).Err(); err != nil {
		return errors.Wrapf(err, "failed to invalidate statement: %s", key)
	}
	return nil
}

func (c *StatementCache) getKey(key financial.Key) string {
	return "statement:" + key.String()
}
