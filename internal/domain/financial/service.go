package financial

import (
	"context"
	"time"

	"github.com/google/uuid"

	"finsight/internal/metrics"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// Service coordinates statement storage and the read cache
type Service struct {
	repo     Repository
	cache    Cache
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewService constructs a statement service. cache may be nil.
func NewService(repo Repository, cache Cache, cacheTTL time.Duration) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      logger.Get().With("component", "financial_service"),
	}
}

// GetStatement returns one statement, consulting the cache first.
// A missing statement is errors.ErrNotFound.
func (s *Service) GetStatement(ctx context.Context, ticker string, kind Kind, year string) (*Statement, error) {
	key, err := NewKey(ticker, kind.String(), year)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			metrics.RecordStatementLookup("cache", "hit")
			return cached, nil
		case errors.Is(err, errors.ErrNotFound):
			metrics.RecordStatementLookup("cache", "miss")
		default:
			metrics.RecordStatementLookup("cache", "error")
			s.log.Warnw("Statement cache read failed", "key", key.String(), "error", err)
		}
	}

	statement, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			metrics.RecordStatementLookup("db", "miss")
			return nil, errors.Wrapf(err, "statement %s", key)
		}
		metrics.RecordStatementLookup("db", "error")
		return nil, errors.Wrapf(err, "get statement %s", key)
	}
	metrics.RecordStatementLookup("db", "hit")

	if s.cache != nil {
		if err := s.cache.Set(ctx, statement, s.cacheTTL); err != nil {
			s.log.Warnw("Statement cache write failed", "key", key.String(), "error", err)
		}
	}

	return statement, nil
}

// Save creates or replaces a statement and drops any cached copy.
func (s *Service) Save(ctx context.Context, ticker, kind, year string, data Fields) (*Statement, error) {
	key, err := NewKey(ticker, kind, year)
	if err != nil {
		return nil, err
	}
	if !ValidYear(key.Year) {
		return nil, errors.NewValidationError("year", "must be a four digit year", year)
	}
	if data == nil {
		return nil, errors.NewValidationError("data", "is required", nil)
	}

	now := time.Now().UTC()
	statement := &Statement{
		ID:        uuid.New(),
		Ticker:    key.Ticker,
		Kind:      key.Kind,
		Year:      key.Year,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Upsert(ctx, statement); err != nil {
		return nil, errors.Wrapf(err, "save statement %s", key)
	}
	s.invalidate(ctx, key)

	s.log.Infow("Statement saved",
		"ticker", key.Ticker,
		"kind", key.Kind,
		"year", key.Year,
		"fields", len(data),
	)

	return statement, nil
}

// Delete removes a statement and its cached copy.
func (s *Service) Delete(ctx context.Context, ticker, kind, year string) error {
	key, err := NewKey(ticker, kind, year)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, key); err != nil {
		return errors.Wrapf(err, "delete statement %s", key)
	}
	s.invalidate(ctx, key)

	s.log.Infow("Statement deleted", "key", key.String())
	return nil
}

// ListByTicker returns every stored statement of a company.
func (s *Service) ListByTicker(ctx context.Context, ticker string) ([]*Statement, error) {
	statements, err := s.repo.ListByTicker(ctx, NormalizeTicker(ticker))
	if err != nil {
		return nil, errors.Wrap(err, "list statements")
	}
	return statements, nil
}

func (s *Service) invalidate(ctx context.Context, key Key) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warnw("Statement cache invalidation failed", "key", key.String(), "error", err)
	}
}
