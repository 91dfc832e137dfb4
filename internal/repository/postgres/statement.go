package postgres

import (
	"context"
	"database/sql"
	"time"

	"finsight/internal/domain/financial"
	"finsight/internal/metrics"
	"finsight/pkg/errors"
)

// Compile-time check
var _ financial.Repository = (*StatementRepository)(nil)

// StatementRepository implements financial.Repository using PostgreSQL
type StatementRepository struct {
	db DBTX
}

// NewStatementRepository creates a new statement repository
func NewStatementRepository(db DBTX) *StatementRepository {
	return &StatementRepository{db: db}
}

// Upsert inserts a statement or replaces the data of the existing (ticker, kind, year) row.
func (r *StatementRepository) Upsert(ctx context.Context, s *financial.Statement) error {
	query := `
		INSERT INTO financial_statements (id, ticker, kind, year, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker, kind, year) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`

	start := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		s.ID, s.Ticker, s.Kind, s.Year, s.Data, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID, &s.CreatedAt)
	metrics.RecordDBQuery("postgres", "upsert_statement", time.Since(start), err)

	if err != nil {
		return errors.Wrap(err, "failed to upsert statement")
	}
	return nil
}

// Get retrieves a statement by its coordinates
func (r *StatementRepository) Get(ctx context.Context, key financial.Key) (*financial.Statement, error) {
	var s financial.Statement
	query := `
		SELECT id, ticker, kind, year, data, created_at, updated_at
		FROM financial_statements
		WHERE ticker = $1 AND kind = $2 AND year = $3`

	start := time.Now()
	err := r.db.GetContext(ctx, &s, query, key.Ticker, key.Kind, key.Year)
	if err == sql.ErrNoRows {
		metrics.RecordDBQuery("postgres", "get_statement", time.Since(start), nil)
		return nil, errors.ErrNotFound
	}
	metrics.RecordDBQuery("postgres", "get_statement", time.Since(start), err)

	if err != nil {
		return nil, errors.Wrap(err, "failed to get statement")
	}
	return &s, nil
}

// Delete removes a statement
func (r *StatementRepository) Delete(ctx context.Context, key financial.Key) error {
	query := `DELETE FROM financial_statements WHERE ticker = $1 AND kind = $2 AND year = $3`

	start := time.Now()
	res, err := r.db.ExecContext(ctx, query, key.Ticker, key.Kind, key.Year)
	metrics.RecordDBQuery("postgres", "delete_statement", time.Since(start), err)

	if err != nil {
		return errors.Wrap(err, "failed to delete statement")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return errors.ErrNotFound
	}
	return nil
}

// ListByTicker returns all statements of a company ordered by year, then kind
func (r *StatementRepository) ListByTicker(ctx context.Context, ticker string) ([]*financial.Statement, error) {
	var statements []*financial.Statement
	query := `
		SELECT id, ticker, kind, year, data, created_at, updated_at
		FROM financial_statements
		WHERE ticker = $1
		ORDER BY year, kind`

	start := time.Now()
	err := r.db.SelectContext(ctx, &statements, query, ticker)
	metrics.RecordDBQuery("postgres", "list_statements", time.Since(start), err)

	if err != nil {
		return nil, errors.Wrap(err, "failed to list statements")
	}
	return statements, nil
}
