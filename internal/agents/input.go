package agents

// StepInput is the resolved input of a plan step:
// NestedRecords, FlatRecords, RecordRows or *ResultContext.
type StepInput interface {
	isStepInput()
}

// NestedRecords maps ticker -> year -> field -> value.
type NestedRecords map[string]map[string]map[string]*float64

// FlatRecords maps ticker -> field -> value, the simplified single-year input.
type FlatRecords map[string]map[string]*float64

// RecordRow is one field value of one statement, the long format used for charts.
type RecordRow struct {
	Ticker string   `json:"ticker"`
	Year   string   `json:"year"`
	Field  string   `json:"field"`
	Value  *float64 `json:"value"`
}

// RecordRows is an ordered list of rows.
type RecordRows []RecordRow

func (NestedRecords) isStepInput()  {}
func (FlatRecords) isStepInput()    {}
func (RecordRows) isStepInput()     {}
func (*ResultContext) isStepInput() {}

// buildRows emits one row per requested field present in each record, in record then field order.
// Fields with a nil value are kept.
func buildRows(records []StatementRecord, fields []string) RecordRows {
	rows := RecordRows{}
	for _, r := range records {
		for _, f := range fields {
			if v, ok := r.Fields[f]; ok {
				rows = append(rows, RecordRow{Ticker: r.Ticker, Year: r.Year, Field: f, Value: v})
			}
		}
	}
	return rows
}

// buildNested groups requested fields by ticker and year. Statements of different kinds for the
// same ticker and year are merged.
func buildNested(records []StatementRecord, fields []string) NestedRecords {
	out := NestedRecords{}
	for _, r := range records {
		for _, f := range fields {
			v, ok := r.Fields[f]
			if !ok {
				continue
			}
			years, ok := out[r.Ticker]
			if !ok {
				years = make(map[string]map[string]*float64)
				out[r.Ticker] = years
			}
			values, ok := years[r.Year]
			if !ok {
				values = make(map[string]*float64)
				years[r.Year] = values
			}
			values[f] = v
		}
	}
	return out
}

// buildFlat is buildNested without the year level; later records overwrite earlier ones.
func buildFlat(records []StatementRecord, fields []string) FlatRecords {
	out := FlatRecords{}
	for _, r := range records {
		for _, f := range fields {
			v, ok := r.Fields[f]
			if !ok {
				continue
			}
			if out[r.Ticker] == nil {
				out[r.Ticker] = make(map[string]*float64)
			}
			out[r.Ticker][f] = v
		}
	}
	return out
}
