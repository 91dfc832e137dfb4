package company

import (
	"time"

	"finsight/internal/domain/financial"
	"finsight/pkg/errors"
)

// Company is the reference profile of a listed company, keyed by ticker.
type Company struct {
	Ticker    string    `db:"ticker" json:"ticker"`
	Name      string    `db:"name" json:"name"`
	Sector    string    `db:"sector" json:"sector"`
	Exchange  string    `db:"exchange" json:"exchange"`
	Country   string    `db:"country" json:"country"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Profile is the editable part of a company.
type Profile struct {
	Name     string `json:"name"`
	Sector   string `json:"sector"`
	Exchange string `json:"exchange"`
	Country  string `json:"country"`
}

func normalizeTicker(ticker string) (string, error) {
	t := financial.NormalizeTicker(ticker)
	if t == "" || len(t) > 16 {
		return "", errors.NewValidationError("ticker", "must be 1 to 16 characters", ticker)
	}
	return t, nil
}
