package agents

import (
	"context"
	"encoding/json"
	"strings"

	"finsight/internal/adapters/ai"
	"finsight/pkg/errors"
)

// ChartBuilder turns statement rows or computed series into chart data.
type ChartBuilder struct {
	oracleStage
}

// NewChartBuilder creates the chart builder agent.
func NewChartBuilder(oracle ai.Invoker, model string) *ChartBuilder {
	return &ChartBuilder{oracleStage: newOracleStage("chart", oracle, model, temperatureChart)}
}

func (b *ChartBuilder) Type() AgentType { return AgentChartBuilder }

type chartPrompt struct {
	Query       string
	Instruction string
	Rows        RecordRows
}

// Invoke returns a ChartSpec. Context input is flattened into rows from its metric series.
// When the reply is unusable and rows exist, the rows are pivoted into a chart directly.
func (b *ChartBuilder) Invoke(ctx context.Context, req AgentRequest) (AgentResult, error) {
	rows := chartRows(req.Input)

	obj, raw, err := b.askJSON(ctx, chartPrompt{Query: req.Query, Instruction: req.Instruction, Rows: rows})
	if err != nil && !errors.Is(err, errors.ErrParseFailure) {
		return nil, err
	}

	var spec *ChartSpec
	if err == nil {
		spec, err = b.decode(obj, raw)
	}
	if err != nil {
		if fallback := PivotRows(rows, req.Instruction); fallback != nil {
			b.log.Warnw("Using pivoted rows for chart", "error", err)
			return fallback, nil
		}
		return nil, err
	}

	b.checkCompleteness(spec, rows)
	return spec, nil
}

func (b *ChartBuilder) decode(obj json.RawMessage, raw string) (*ChartSpec, error) {
	var spec ChartSpec
	if err := json.Unmarshal(obj, &spec); err != nil {
		return nil, b.shapeFailure("unexpected chart shape: "+err.Error(), raw)
	}
	if len(spec.Data) == 0 {
		return nil, b.shapeFailure("empty chart data", raw)
	}
	return &spec, nil
}

// checkCompleteness warns when the first point carries fewer series than there are companies.
func (b *ChartBuilder) checkCompleteness(spec *ChartSpec, rows RecordRows) {
	tickers := distinctTickers(rows)
	if len(tickers) > 1 && len(spec.Data[0].Values) < len(tickers) {
		b.log.Warnw("Chart data may be missing companies",
			"tickers", tickers,
			"first_point_series", len(spec.Data[0].Values),
		)
	}
}

// chartRows returns the rows a chart is built from: the rows themselves, or one row per value
// of every metric series in a context.
func chartRows(input StepInput) RecordRows {
	switch in := input.(type) {
	case RecordRows:
		return in
	case *ResultContext:
		rows := RecordRows{}
		for _, s := range in.MetricSeries() {
			for _, v := range s.Values {
				value := v.Value
				rows = append(rows, RecordRow{Ticker: v.Ticker, Year: itoa(v.Year), Field: s.Key, Value: &value})
			}
		}
		return rows
	default:
		return RecordRows{}
	}
}

// PivotRows builds a chart with one point per year, ascending. Series are tickers when rows carry
// a single field, fields when they carry a single ticker, and "<ticker> <field>" otherwise.
// Rows with a nil value are skipped. It returns nil when no row has a value.
func PivotRows(rows RecordRows, title string) *ChartSpec {
	tickers := distinctTickers(rows)
	fields := distinctFields(rows)

	seriesName := func(r RecordRow) string {
		switch {
		case len(fields) == 1:
			return r.Ticker
		case len(tickers) == 1:
			return r.Field
		default:
			return r.Ticker + " " + r.Field
		}
	}

	points := make(map[string]*ChartPoint)
	for _, r := range rows {
		if r.Value == nil {
			continue
		}
		p, ok := points[r.Year]
		if !ok {
			p = &ChartPoint{Name: r.Year}
			points[r.Year] = p
		}
		p.Values = append(p.Values, ChartValue{Series: seriesName(r), Value: *r.Value})
	}
	if len(points) == 0 {
		return nil
	}

	years := sortedKeys(points)
	spec := &ChartSpec{
		ChartType:  "bar",
		Title:      strings.TrimSpace(title),
		XAxisLabel: "Year",
		YAxisLabel: "Value",
	}
	if len(years) > 1 {
		spec.ChartType = "line"
	}
	if len(fields) == 1 {
		spec.YAxisLabel = fields[0]
	}
	if spec.Title == "" {
		spec.Title = strings.Join(fields, ", ")
	}
	for _, y := range years {
		spec.Data = append(spec.Data, *points[y])
	}
	return spec
}

func distinctTickers(rows RecordRows) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range rows {
		if !seen[r.Ticker] {
			seen[r.Ticker] = true
			out = append(out, r.Ticker)
		}
	}
	return out
}

func distinctFields(rows RecordRows) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range rows {
		if !seen[r.Field] {
			seen[r.Field] = true
			out = append(out, r.Field)
		}
	}
	return out
}
