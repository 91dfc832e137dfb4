package financial

import (
	"database/sql/driver"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"finsight/pkg/errors"
)

// Kind classifies a financial statement.
type Kind string

const (
	KindIncome   Kind = "income"
	KindBalance  Kind = "balance"
	KindCashflow Kind = "cashflow"
)

// Valid checks if the kind is one of the supported statement kinds
func (k Kind) Valid() bool {
	switch k {
	case KindIncome, KindBalance, KindCashflow:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	return string(k)
}

// ParseKind accepts the canonical kind names plus the spellings models tend to produce
// ("cash_flow", "Balance Sheet", "income_statement").
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "", "-", "", " ", "").Replace(norm)
	norm = strings.TrimSuffix(norm, "statement")
	norm = strings.TrimSuffix(norm, "sheet")

	switch norm {
	case "income":
		return KindIncome, nil
	case "balance":
		return KindBalance, nil
	case "cashflow":
		return KindCashflow, nil
	default:
		return "", errors.NewValidationError("statement_type", "must be income, balance or cashflow", s)
	}
}

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// ValidYear reports whether year is a four digit fiscal year.
func ValidYear(year string) bool {
	return yearPattern.MatchString(year)
}

// NormalizeTicker upper-cases and trims a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// Fields maps statement line-item names to values. A nil value is a line item the filing left empty.
type Fields map[string]*float64

// Value implements driver.Valuer for JSONB columns
func (f Fields) Value() (driver.Value, error) {
	if f == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(f)
}

// Scan implements sql.Scanner for JSONB columns
func (f *Fields) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*f = Fields{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.Newf("unsupported fields source type %T", src)
	}
	return json.Unmarshal(data, f)
}

// Names returns the field names in no particular order.
func (f Fields) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	return names
}

// Statement is one company's statement of one kind for one fiscal year.
type Statement struct {
	ID        uuid.UUID `db:"id" json:"-"`
	Ticker    string    `db:"ticker" json:"ticker"`
	Kind      Kind      `db:"kind" json:"statement_type"`
	Year      string    `db:"year" json:"year"`
	Data      Fields    `db:"data" json:"data"`
	CreatedAt time.Time `db:"created_at" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Key identifies a statement.
type Key struct {
	Ticker string
	Kind   Kind
	Year   string
}

// NewKey normalizes and validates the three coordinates of a statement.
func NewKey(ticker, kind, year string) (Key, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return Key{}, err
	}

	key := Key{Ticker: NormalizeTicker(ticker), Kind: k, Year: strings.TrimSpace(year)}
	if key.Ticker == "" {
		return Key{}, errors.NewValidationError("ticker", "is required", ticker)
	}
	if key.Year == "" {
		return Key{}, errors.NewValidationError("year", "is required", year)
	}
	return key, nil
}

func (k Key) String() string {
	return k.Ticker + "/" + string(k.Kind) + "/" + k.Year
}
