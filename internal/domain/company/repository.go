package company

import "context"

// Repository defines persistence for company profiles
// Implementation is in internal/repository/postgres/company.go
type Repository interface {
	// Upsert inserts a company or replaces the profile of the existing ticker
	Upsert(ctx context.Context, company *Company) error
	Get(ctx context.Context, ticker string) (*Company, error)
	Delete(ctx context.Context, ticker string) error
}
