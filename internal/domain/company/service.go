package company

import (
	"context"
	"time"

	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// Service manages company profiles. Tickers are upper-cased before every lookup.
type Service struct {
	repo Repository
	log  *logger.Logger
}

// NewService constructs a company service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, log: logger.Get().With("component", "company_service")}
}

// Get returns the company for ticker, errors.ErrNotFound when unknown.
func (s *Service) Get(ctx context.Context, ticker string) (*Company, error) {
	t, err := normalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.Get(ctx, t)
	if err != nil {
		return nil, errors.Wrapf(err, "company %s", t)
	}
	return c, nil
}

// Save creates or replaces the profile of ticker.
func (s *Service) Save(ctx context.Context, ticker string, profile Profile) (*Company, error) {
	t, err := normalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c := &Company{
		Ticker:    t,
		Name:      profile.Name,
		Sector:    profile.Sector,
		Exchange:  profile.Exchange,
		Country:   profile.Country,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Upsert(ctx, c); err != nil {
		return nil, errors.Wrapf(err, "save company %s", t)
	}

	s.log.Infow("Company saved", "ticker", t, "name", c.Name)
	return c, nil
}

// Delete removes a company profile. Its statements are left in place.
func (s *Service) Delete(ctx context.Context, ticker string) error {
	t, err := normalizeTicker(ticker)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, t); err != nil {
		return errors.Wrapf(err, "delete company %s", t)
	}
	s.log.Infow("Company deleted", "ticker", t)
	return nil
}
