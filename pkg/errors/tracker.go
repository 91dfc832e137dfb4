package errors

import (
	"context"
)

// Tracker receives pipeline failures that should reach an operator. Sentry backs it in
// deployments; the no-op implementation is used when SENTRY_DSN is unset.
type Tracker interface {
	// CaptureError reports an unexpected failure, tagged with the query it broke
	CaptureError(ctx context.Context, err error, tags map[string]string) error

	// CaptureMessage reports a degraded answer that is not an error, e.g. a plan whose steps all failed
	CaptureMessage(ctx context.Context, message string, level Level, tags map[string]string) error

	// AddBreadcrumb records a pipeline stage so a later capture shows how far the query got
	AddBreadcrumb(ctx context.Context, message string, category string, level Level, data map[string]interface{})

	// Flush blocks until queued events are delivered or ctx expires
	Flush(ctx context.Context) error
}

// Level is the severity attached to tracker events.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelFatal   Level = "fatal"
)
