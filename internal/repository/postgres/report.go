package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"finsight/internal/domain/report"
	"finsight/pkg/errors"
)

// Compile-time check
var _ report.Repository = (*ReportRepository)(nil)

// ReportRepository implements report.Repository using PostgreSQL.
// Exchanges and summaries are JSONB arrays.
type ReportRepository struct {
	db DBTX
}

// NewReportRepository creates a new report repository
func NewReportRepository(db DBTX) *ReportRepository {
	return &ReportRepository{db: db}
}

// CreateSnapshot inserts a saved selection
func (r *ReportRepository) CreateSnapshot(ctx context.Context, s *report.Snapshot) error {
	query := `
		INSERT INTO report_snapshots (id, user_id, chat_id, exchanges, created_at)
		VALUES (:id, :user_id, :chat_id, :exchanges, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return errors.Wrap(err, "failed to create report snapshot")
	}
	return nil
}

// CreateReport inserts a named report
func (r *ReportRepository) CreateReport(ctx context.Context, rep *report.Report) error {
	query := `
		INSERT INTO reports (id, user_id, chat_id, name, exchanges, summaries, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		rep.ID, rep.UserID, rep.ChatID, rep.Name, rep.Exchanges, rep.Summaries, rep.CreatedAt, rep.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create report")
	}
	return nil
}

// GetReport retrieves a named report by ID
func (r *ReportRepository) GetReport(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	var rep report.Report
	query := `
		SELECT id, user_id, chat_id, name, exchanges, summaries, created_at, updated_at
		FROM reports
		WHERE id = $1`

	err := r.db.GetContext(ctx, &rep, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get report")
	}
	return &rep, nil
}

// UpdateReport writes back exchanges, summaries and updated_at
func (r *ReportRepository) UpdateReport(ctx context.Context, rep *report.Report) error {
	query := `
		UPDATE reports
		SET exchanges = $2, summaries = $3, updated_at = $4
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, rep.ID, rep.Exchanges, rep.Summaries, rep.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to update report")
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

// ListReportsByUser returns a user's named reports, newest first
func (r *ReportRepository) ListReportsByUser(ctx context.Context, userID string) ([]*report.Report, error) {
	var reports []*report.Report
	query := `
		SELECT id, user_id, chat_id, name, exchanges, summaries, created_at, updated_at
		FROM reports
		WHERE user_id = $1
		ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &reports, query, userID); err != nil {
		return nil, errors.Wrap(err, "failed to list reports")
	}
	return reports, nil
}
