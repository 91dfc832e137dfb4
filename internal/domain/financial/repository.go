package financial

import (
	"context"
	"time"
)

// Repository defines persistence for financial statements
type Repository interface {
	Upsert(ctx context.Context, statement *Statement) error
	Get(ctx context.Context, key Key) (*Statement, error)
	Delete(ctx context.Context, key Key) error
	ListByTicker(ctx context.Context, ticker string) ([]*Statement, error)
}

// Cache is an optional read-through cache in front of the repository.
// Get returns errors.ErrNotFound on a miss.
type Cache interface {
	Get(ctx context.Context, key Key) (*Statement, error)
	Set(ctx context.Context, statement *Statement, ttl time.Duration) error
	Invalidate(ctx context.Context, key Key) error
}
