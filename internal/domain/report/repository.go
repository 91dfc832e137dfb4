package report

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for snapshots and named reports
// Implementation is in internal/repository/postgres/report.go
type Repository interface {
	CreateSnapshot(ctx context.Context, snapshot *Snapshot) error

	CreateReport(ctx context.Context, report *Report) error
	GetReport(ctx context.Context, id uuid.UUID) (*Report, error)
	// UpdateReport replaces the exchanges, summaries and updated_at of an existing report
	UpdateReport(ctx context.Context, report *Report) error
	ListReportsByUser(ctx context.Context, userID string) ([]*Report, error)
}
