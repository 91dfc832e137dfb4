package postgres

import (
	"context"
	"database/sql"
	"time"

	"finsight/internal/domain/company"
	"finsight/internal/metrics"
	"finsight/pkg/errors"
)

// Compile-time check
var _ company.Repository = (*CompanyRepository)(nil)

// CompanyRepository implements company.Repository using PostgreSQL
type CompanyRepository struct {
	db DBTX
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db DBTX) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// Upsert inserts a company or replaces the profile of an existing ticker.
// created_at of an existing row is kept and written back into c.
func (r *CompanyRepository) Upsert(ctx context.Context, c *company.Company) error {
	query := `
		INSERT INTO companies (ticker, name, sector, exchange, country, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker) DO UPDATE SET
			name = EXCLUDED.name,
			sector = EXCLUDED.sector,
			exchange = EXCLUDED.exchange,
			country = EXCLUDED.country,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at`

	start := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		c.Ticker, c.Name, c.Sector, c.Exchange, c.Country, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.CreatedAt)
	metrics.RecordDBQuery("postgres", "upsert_company", time.Since(start), err)

	if err != nil {
		return errors.Wrap(err, "failed to upsert company")
	}
	return nil
}

// Get retrieves a company by ticker
func (r *CompanyRepository) Get(ctx context.Context, ticker string) (*company.Company, error) {
	var c company.Company
	query := `
		SELECT ticker, name, sector, exchange, country, created_at, updated_at
		FROM companies
		WHERE ticker = $1`

	start := time.Now()
	err := r.db.GetContext(ctx, &c, query, ticker)
	if err == sql.ErrNoRows {
		metrics.RecordDBQuery("postgres", "get_company", time.Since(start), nil)
		return nil, errors.ErrNotFound
	}
	metrics.RecordDBQuery("postgres", "get_company", time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get company")
	}
	return &c, nil
}

// Delete removes a company by ticker
func (r *CompanyRepository) Delete(ctx context.Context, ticker string) error {
	start := time.Now()
	res, err := r.db.ExecContext(ctx, `DELETE FROM companies WHERE ticker = $1`, ticker)
	metrics.RecordDBQuery("postgres", "delete_company", time.Since(start), err)
	if err != nil {
		return errors.Wrap(err, "failed to delete company")
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
