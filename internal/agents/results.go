package agents

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/tidwall/gjson"

	"finsight/pkg/errors"
)

// ResultKind tags the variants of AgentResult.
type ResultKind string

const (
	ResultMetricSeries ResultKind = "metric_series"
	ResultFormula      ResultKind = "formula"
	ResultChart        ResultKind = "chart"
	ResultDisplayPlan  ResultKind = "display_plan"
)

// AgentResult is the output of one plan step:
// *MetricSeries, *FormulaText, *ChartSpec or *DisplayPlan.
type AgentResult interface {
	ResultKind() ResultKind
}

// MetricValue is one computed value for a company and year.
type MetricValue struct {
	Ticker string  `json:"ticker"`
	Year   int     `json:"year"`
	Value  float64 `json:"value"`
}

// MetricSeries is the calculator output: one value per (ticker, year) under a metric key.
type MetricSeries struct {
	Key    string        `json:"key"`
	Values []MetricValue `json:"values"`
}

func (*MetricSeries) ResultKind() ResultKind { return ResultMetricSeries }

// FormulaText is a display formula delimited by \[ and \].
type FormulaText struct {
	Latex string
}

func (*FormulaText) ResultKind() ResultKind { return ResultFormula }

// MarshalJSON encodes the formula as a bare string.
func (f *FormulaText) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Latex)
}

// ChartValue is one named series value of a chart point.
type ChartValue struct {
	Series string
	Value  float64
}

// ChartPoint is one x-axis position. It encodes as {"name": ..., "<series>": value, ...}
// with series in insertion order.
type ChartPoint struct {
	Name   string
	Values []ChartValue
}

// MarshalJSON writes name first, then each series in order.
func (p ChartPoint) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	writeJSONField(&buf, "name", p.Name)
	for _, v := range p.Values {
		buf.WriteByte(',')
		writeJSONField(&buf, v.Series, v.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON keeps the property order of the source object. Non-numeric series values are dropped.
func (p *ChartPoint) UnmarshalJSON(data []byte) error {
	obj := gjson.ParseBytes(data)
	if !obj.IsObject() {
		return errors.Newf("chart point must be an object, got %s", obj.Type)
	}

	p.Name = ""
	p.Values = nil
	obj.ForEach(func(key, value gjson.Result) bool {
		if key.Str == "name" {
			if value.Type == gjson.Number {
				p.Name = value.Raw
			} else {
				p.Name = value.String()
			}
			return true
		}
		if f, ok := parseNumber(value); ok {
			p.Values = append(p.Values, ChartValue{Series: key.Str, Value: f})
		}
		return true
	})
	return nil
}

// Get returns the value of series in the point.
func (p ChartPoint) Get(series string) (float64, bool) {
	for _, v := range p.Values {
		if v.Series == series {
			return v.Value, true
		}
	}
	return 0, false
}

// ChartSpec is the chart builder output, rendered by the client as-is.
type ChartSpec struct {
	ChartType  string       `json:"chart_type"`
	Title      string       `json:"title"`
	XAxisLabel string       `json:"x_axis_label"`
	YAxisLabel string       `json:"y_axis_label"`
	Data       []ChartPoint `json:"data"`
}

func (*ChartSpec) ResultKind() ResultKind { return ResultChart }

// ComponentKind names the client component that renders a display block.
type ComponentKind string

const (
	ComponentText  ComponentKind = "AgentText"
	ComponentTable ComponentKind = "AgentTable"
	ComponentLatex ComponentKind = "AgentLatex"
	ComponentGraph ComponentKind = "AgentGraph"
)

// MessageType maps a component to the chat message type stored for it.
func (k ComponentKind) MessageType() string {
	switch k {
	case ComponentTable:
		return "table"
	case ComponentLatex:
		return "latex"
	case ComponentGraph:
		return "graph"
	default:
		return "text"
	}
}

// Block is one rendered piece of an answer.
type Block struct {
	Component ComponentKind   `json:"component"`
	Data      json.RawMessage `json:"data"`
}

// DisplayPlan is the ordered list of blocks returned to the caller.
type DisplayPlan struct {
	Blocks []Block `json:"render_plan"`
}

func (*DisplayPlan) ResultKind() ResultKind { return ResultDisplayPlan }

// TextBlock builds a Text block.
func TextBlock(text string) Block {
	return Block{Component: ComponentText, Data: mustJSON(text)}
}

// TableBlock builds a Table block from rows.
func TableBlock(rows []TableRow) Block {
	return Block{Component: ComponentTable, Data: mustJSON(rows)}
}

// LatexBlock builds a Latex block.
func LatexBlock(f *FormulaText) Block {
	return Block{Component: ComponentLatex, Data: mustJSON(f.Latex)}
}

// GraphBlock builds a Graph block carrying the chart verbatim.
func GraphBlock(c *ChartSpec) Block {
	return Block{Component: ComponentGraph, Data: mustJSON(c)}
}

// TableCell is one company column of a table row.
type TableCell struct {
	Column string
	Value  float64
}

// TableRow is one year of a metric table. It encodes as {"Year": "2021", "<column>": value, ...}.
type TableRow struct {
	Year  string
	Cells []TableCell
}

// MarshalJSON writes Year first, then each cell in column order.
func (r TableRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	writeJSONField(&buf, "Year", r.Year)
	for _, c := range r.Cells {
		buf.WriteByte(',')
		writeJSONField(&buf, c.Column, c.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONField(buf *bytes.Buffer, key string, value interface{}) {
	buf.Write(mustJSON(key))
	buf.WriteByte(':')
	buf.Write(mustJSON(value))
}

// mustJSON encodes values that cannot fail to marshal (strings, finite floats, result types).
// Non-finite floats encode as null.
func mustJSON(v interface{}) json.RawMessage {
	if f, ok := v.(float64); ok {
		return json.RawMessage(formatFloat(f))
	}
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return data
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "null"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
