package agents

import (
	"context"

	"golang.org/x/sync/errgroup"

	"finsight/internal/domain/financial"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// StatementSource reads one statement. Implemented by the statements HTTP client and by
// financial.Service directly.
type StatementSource interface {
	GetStatement(ctx context.Context, ticker string, kind financial.Kind, year string) (*financial.Statement, error)
}

// Resolver fetches the statements of identified targets concurrently.
type Resolver struct {
	source         StatementSource
	maxConcurrency int
	log            *logger.Logger
}

// NewResolver creates the data resolution stage. maxConcurrency <= 0 means unbounded.
func NewResolver(source StatementSource, maxConcurrency int) *Resolver {
	return &Resolver{
		source:         source,
		maxConcurrency: maxConcurrency,
		log:            logger.Get().With("component", "resolver"),
	}
}

// Resolve fetches every target and returns the records that exist, in target order.
// A failed fetch only drops its own record. No records at all is errors.ErrNoDataFound.
func (r *Resolver) Resolve(ctx context.Context, targets []Target) ([]StatementRecord, error) {
	slots := make([]*StatementRecord, len(targets))

	var g errgroup.Group
	if r.maxConcurrency > 0 {
		g.SetLimit(r.maxConcurrency)
	}

	for i, target := range targets {
		g.Go(func() error {
			statement, err := r.source.GetStatement(ctx, target.Ticker, target.Kind, target.Year)
			if err != nil {
				if errors.Is(err, errors.ErrNotFound) {
					r.log.Infow("Statement not found", "ticker", target.Ticker, "kind", target.Kind, "year", target.Year)
				} else {
					r.log.Warnw("Statement fetch failed", "ticker", target.Ticker, "kind", target.Kind, "year", target.Year, "error", err)
				}
				return nil
			}
			if statement == nil || statement.Data == nil {
				return nil
			}

			slots[i] = &StatementRecord{
				Ticker: target.Ticker,
				Year:   target.Year,
				Kind:   target.Kind,
				Fields: statement.Data,
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]StatementRecord, 0, len(targets))
	for _, rec := range slots {
		if rec != nil {
			records = append(records, *rec)
		}
	}

	r.log.Infow("Resolved statements", "requested", len(targets), "found", len(records))
	if len(records) == 0 {
		return nil, errors.ErrNoDataFound
	}
	return records, nil
}
