package agents

import (
	"context"
	"slices"
	"strings"

	"github.com/tidwall/gjson"

	"finsight/internal/adapters/ai"
	"finsight/internal/domain/financial"
	"finsight/pkg/llmjson"
)

// Canned instruction used when the oracle's reply is unusable but mentions debt to equity.
const (
	debtToEquityPhrase      = "debt to equity ratio"
	debtToEquityInstruction = "Calculate the debt to equity ratio using the formula: Total Debt / Total Equity Gross Minority Interest"
)

// Classifier decides whether a question is a direct lookup, a derived metric or a chart request.
type Classifier struct {
	oracleStage
}

// NewClassifier creates the intent classification stage.
func NewClassifier(oracle ai.Invoker, model string) *Classifier {
	return &Classifier{oracleStage: newOracleStage("classifier", oracle, model, temperatureClassify)}
}

type classifierPrompt struct {
	Query   string
	Fields  []string
	Records []StatementRecord
}

// Classify returns the question's intent. Any unusable reply is a parse failure, except that a raw
// reply mentioning the debt to equity ratio becomes the canned debt to equity instruction.
func (c *Classifier) Classify(ctx context.Context, query string, records []StatementRecord) (*Intent, error) {
	fields := FieldNames(records)

	obj, raw, err := c.askJSON(ctx, classifierPrompt{Query: query, Fields: fields, Records: records})
	if err == nil {
		var intent *Intent
		intent, err = c.parse(obj, raw, fields, records)
		if err == nil {
			c.log.Infow("Classified query", "intent", intent.Kind)
			return intent, nil
		}
	}

	if raw != "" && strings.Contains(strings.ToLower(raw), debtToEquityPhrase) {
		c.log.Warnw("Using canned debt to equity instruction", "error", err)
		return &Intent{Kind: IntentInstruction, Text: debtToEquityInstruction}, nil
	}
	return nil, err
}

func (c *Classifier) parse(obj []byte, raw string, fields []string, records []StatementRecord) (*Intent, error) {
	kind := IntentKind(strings.ToLower(strings.TrimSpace(llmjson.String(obj, "type"))))

	switch kind {
	case IntentInstruction, IntentGraph:
		text := strings.TrimSpace(llmjson.String(obj, "instruction"))
		if text == "" {
			return nil, c.shapeFailure("missing instruction", raw)
		}
		return &Intent{Kind: kind, Text: text}, nil

	case IntentDirectAnswer:
		key := strings.TrimSpace(llmjson.String(obj, "key"))
		if !slices.Contains(fields, key) {
			return nil, c.shapeFailure("direct answer references unknown field "+key, raw)
		}

		series := &MetricSeries{Key: key}
		available := recordPairs(records)
		gjson.GetBytes(obj, "values").ForEach(func(_, v gjson.Result) bool {
			ticker := financial.NormalizeTicker(v.Get("ticker").String())
			year, okYear := parseYear(v.Get("year"))
			value, okValue := parseNumber(v.Get("value"))
			if !okYear || !okValue || !available[pairKey(ticker, itoa(year))] {
				c.log.Warnw("Dropping direct answer value", "value", v.Raw)
				return true
			}
			series.Values = append(series.Values, MetricValue{Ticker: ticker, Year: year, Value: value})
			return true
		})
		if len(series.Values) == 0 {
			return nil, c.shapeFailure("direct answer has no usable values", raw)
		}

		return &Intent{Kind: kind, Series: series, Message: llmjson.String(obj, "message")}, nil

	case "":
		return nil, c.shapeFailure("missing type", raw)

	default:
		return nil, c.shapeFailure("unknown type "+string(kind), raw)
	}
}

func recordPairs(records []StatementRecord) map[string]bool {
	pairs := make(map[string]bool, len(records))
	for _, r := range records {
		pairs[pairKey(r.Ticker, r.Year)] = true
	}
	return pairs
}

func pairKey(ticker, year string) string {
	return ticker + "|" + year
}
