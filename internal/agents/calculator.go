package agents

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"

	"finsight/internal/adapters/ai"
	"finsight/internal/domain/financial"
	"finsight/pkg/llmjson"
)

// Calculator applies one formula uniformly across companies and years.
type Calculator struct {
	oracleStage
}

// NewCalculator creates the calculator agent.
func NewCalculator(oracle ai.Invoker, model string) *Calculator {
	return &Calculator{oracleStage: newOracleStage("calculator", oracle, model, temperatureCalculate)}
}

func (c *Calculator) Type() AgentType { return AgentCalculator }

type calculatorPrompt struct {
	Instruction string
	Key         string
	Input       StepInput
}

// Invoke returns a MetricSeries. Values for companies or years absent from a records input are
// dropped, so the series never carries numbers the input could not have produced.
func (c *Calculator) Invoke(ctx context.Context, req AgentRequest) (AgentResult, error) {
	obj, raw, err := c.askJSON(ctx, calculatorPrompt{Instruction: req.Instruction, Key: req.OutputKey, Input: req.Input})
	if err != nil {
		return nil, err
	}
	if !llmjson.HasArray(obj, "values") {
		return nil, c.shapeFailure("missing values array", raw)
	}

	key := strings.TrimSpace(llmjson.String(obj, "key"))
	if key == "" {
		key = req.OutputKey
	}

	allowed := inputScope(req.Input)
	series := &MetricSeries{Key: key}
	gjson.GetBytes(obj, "values").ForEach(func(_, v gjson.Result) bool {
		ticker := financial.NormalizeTicker(v.Get("ticker").String())
		year, okYear := parseYear(v.Get("year"))
		value, okValue := parseNumber(v.Get("value"))
		if ticker == "" || !okYear || !okValue || !allowed(ticker, itoa(year)) {
			c.log.Warnw("Dropping calculated value", "value", v.Raw)
			return true
		}
		series.Values = append(series.Values, MetricValue{Ticker: ticker, Year: year, Value: value})
		return true
	})

	if len(series.Values) == 0 {
		return nil, c.shapeFailure("no usable values", raw)
	}
	return series, nil
}

// inputScope reports which (ticker, year) pairs a value may be computed for.
func inputScope(input StepInput) func(ticker, year string) bool {
	switch in := input.(type) {
	case NestedRecords:
		return func(ticker, year string) bool {
			_, ok := in[ticker][year]
			return ok
		}
	case FlatRecords:
		return func(ticker, _ string) bool {
			_, ok := in[ticker]
			return ok
		}
	default:
		return func(string, string) bool { return true }
	}
}
