package agents

import (
	"bytes"
	"encoding/json"
)

// ResultContext accumulates step outputs by output key for one plan run.
// Keys keep the position of their first write; a later write to the same key replaces the value.
type ResultContext struct {
	keys   []string
	values map[string]AgentResult
}

// NewResultContext returns an empty context.
func NewResultContext() *ResultContext {
	return &ResultContext{values: make(map[string]AgentResult)}
}

// Set stores result under key.
func (c *ResultContext) Set(key string, result AgentResult) {
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = result
}

// Get returns the result stored under key.
func (c *ResultContext) Get(key string) (AgentResult, bool) {
	r, ok := c.values[key]
	return r, ok
}

// Keys returns the stored keys in insertion order.
func (c *ResultContext) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Len returns the number of stored results.
func (c *ResultContext) Len() int {
	return len(c.keys)
}

// Snapshot copies the key set so a step cannot observe writes made after it started.
func (c *ResultContext) Snapshot() *ResultContext {
	cp := &ResultContext{
		keys:   append([]string(nil), c.keys...),
		values: make(map[string]AgentResult, len(c.values)),
	}
	for k, v := range c.values {
		cp.values[k] = v
	}
	return cp
}

// MetricSeries returns every stored series in key order.
func (c *ResultContext) MetricSeries() []*MetricSeries {
	var out []*MetricSeries
	for _, k := range c.keys {
		if s, ok := c.values[k].(*MetricSeries); ok {
			out = append(out, s)
		}
	}
	return out
}

// Formulas returns every stored formula in key order.
func (c *ResultContext) Formulas() []*FormulaText {
	var out []*FormulaText
	for _, k := range c.keys {
		if f, ok := c.values[k].(*FormulaText); ok {
			out = append(out, f)
		}
	}
	return out
}

// Charts returns every stored chart in key order.
func (c *ResultContext) Charts() []*ChartSpec {
	var out []*ChartSpec
	for _, k := range c.keys {
		if ch, ok := c.values[k].(*ChartSpec); ok {
			out = append(out, ch)
		}
	}
	return out
}

// MarshalJSON encodes the context as an object in key order.
func (c *ResultContext) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		value, err := json.Marshal(c.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(mustJSON(k))
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
