package agents

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

var numberCleaner = strings.NewReplacer(",", "", "$", "", "%", "", " ", "", "_", "")

// parseNumber reads a model-produced number. Quoted numbers with separators or currency signs
// ("1,234.5", "$2.0") are accepted, as are accounting negatives ("(5)", "($1,200)"). A percent
// sign is dropped without scaling, so "12%" reads as 12. Null, booleans and text are rejected.
func parseNumber(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		d, err := decimal.NewFromString(v.Raw)
		if err != nil {
			return v.Num, true
		}
		f, _ := d.Float64()
		return f, true
	case gjson.String:
		s := numberCleaner.Replace(strings.TrimSpace(v.Str))
		negate := false
		if len(s) > 2 && s[0] == '(' && s[len(s)-1] == ')' {
			s, negate = s[1:len(s)-1], true
		}
		if s == "" {
			return 0, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return 0, false
		}
		if negate {
			d = d.Neg()
		}
		f, _ := d.Float64()
		return f, true
	default:
		return 0, false
	}
}

// parseYear reads a fiscal year given as 2022, "2022" or "FY2022".
func parseYear(v gjson.Result) (int, bool) {
	var s string
	switch v.Type {
	case gjson.Number:
		s = v.Raw
	case gjson.String:
		s = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(v.Str)), "FY")
	default:
		return 0, false
	}

	year, err := strconv.Atoi(s)
	if err != nil || year < 1000 || year > 9999 {
		return 0, false
	}
	return year, true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
