package agents

import (
	"context"

	"github.com/tidwall/gjson"

	"finsight/internal/adapters/ai"
	"finsight/internal/domain/financial"
	"finsight/pkg/llmjson"
)

// Identifier maps company references in a question to the statements needed to answer it.
type Identifier struct {
	oracleStage
}

// NewIdentifier creates the identification stage.
func NewIdentifier(oracle ai.Invoker, model string) *Identifier {
	return &Identifier{oracleStage: newOracleStage("identifier", oracle, model, temperatureIdentify)}
}

// Identify returns one target per distinct (ticker, year, kind) in the oracle's mapping.
// A reply without a mapping array is a parse failure; an empty slice means no company was recognised.
func (i *Identifier) Identify(ctx context.Context, query string) ([]Target, error) {
	obj, raw, err := i.askJSON(ctx, struct{ Query string }{Query: query})
	if err != nil {
		return nil, err
	}
	if !llmjson.HasArray(obj, "mapping") {
		return nil, i.shapeFailure("missing mapping array", raw)
	}

	seen := make(map[Target]bool)
	var targets []Target
	gjson.GetBytes(obj, "mapping").ForEach(func(_, entry gjson.Result) bool {
		target, ok := parseTarget(entry)
		if !ok {
			i.log.Warnw("Dropping invalid mapping entry", "entry", entry.Raw)
			return true
		}
		if !seen[target] {
			seen[target] = true
			targets = append(targets, target)
		}
		return true
	})

	i.log.Infow("Identified statements", "count", len(targets))
	return targets, nil
}

func parseTarget(entry gjson.Result) (Target, bool) {
	if !entry.IsObject() {
		return Target{}, false
	}

	ticker := financial.NormalizeTicker(entry.Get("ticker").String())
	year, ok := parseYear(entry.Get("year"))
	if ticker == "" || !ok {
		return Target{}, false
	}

	kind, err := financial.ParseKind(entry.Get("statement_type").String())
	if err != nil {
		return Target{}, false
	}

	return Target{Ticker: ticker, Year: itoa(year), Kind: kind}, true
}
