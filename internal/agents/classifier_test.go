package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/pkg/errors"
)

func classifierRecords() []StatementRecord {
	return []StatementRecord{
		balanceRecord("AAPL", "2022", map[string]*float64{"Total Debt": f64(120), "Total Equity Gross Minority Interest": f64(60)}),
		balanceRecord("GOOG", "2022", map[string]*float64{"Total Debt": f64(30), "Total Equity Gross Minority Interest": f64(250)}),
	}
}

func TestClassifier_Instruction(t *testing.T) {
	oracle := newFakeOracle().reply("classifier", `{"type": "instruction", "instruction": "Divide Total Debt by Total Equity Gross Minority Interest"}`)

	intent, err := NewClassifier(oracle, "m").Classify(context.Background(), "debt to equity of apple", classifierRecords())
	require.NoError(t, err)

	assert.Equal(t, IntentInstruction, intent.Kind)
	assert.Equal(t, "Divide Total Debt by Total Equity Gross Minority Interest", intent.Text)
	assert.Contains(t, oracle.lastPrompt("classifier"), "Total Debt")
}

func TestClassifier_Graph(t *testing.T) {
	oracle := newFakeOracle().reply("classifier", `{"type": "GRAPH", "instruction": "Plot Total Debt"}`)

	intent, err := NewClassifier(oracle, "m").Classify(context.Background(), "plot debt", classifierRecords())
	require.NoError(t, err)
	assert.Equal(t, IntentGraph, intent.Kind)
	assert.Equal(t, "Plot Total Debt", intent.Text)
}

func TestClassifier_DirectAnswerKeepsOnlyKnownPairs(t *testing.T) {
	oracle := newFakeOracle().reply("classifier", `{
		"type": "direct_answer",
		"key": "Total Debt",
		"values": [
			{"ticker": "aapl", "year": 2022, "value": "120"},
			{"ticker": "GOOG", "year": "2022", "value": 30},
			{"ticker": "MSFT", "year": "2022", "value": 55},
			{"ticker": "GOOG", "year": "2019", "value": 10}
		],
		"message": "Apple carries more debt than Google."
	}`)

	intent, err := NewClassifier(oracle, "m").Classify(context.Background(), "total debt", classifierRecords())
	require.NoError(t, err)

	assert.Equal(t, IntentDirectAnswer, intent.Kind)
	assert.Equal(t, "Apple carries more debt than Google.", intent.Message)
	assert.Equal(t, &MetricSeries{Key: "Total Debt", Values: []MetricValue{
		{Ticker: "AAPL", Year: 2022, Value: 120},
		{Ticker: "GOOG", Year: 2022, Value: 30},
	}}, intent.Series)
}

func TestClassifier_DirectAnswerUnknownField(t *testing.T) {
	oracle := newFakeOracle().reply("classifier", `{"type": "direct_answer", "key": "Free Cash Flow", "values": [{"ticker": "AAPL", "year": 2022, "value": 1}]}`)

	_, err := NewClassifier(oracle, "m").Classify(context.Background(), "fcf", classifierRecords())
	assert.ErrorIs(t, err, errors.ErrParseFailure)
}

func TestClassifier_Failures(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "no json", reply: "I am not sure what you mean."},
		{name: "missing type", reply: `{"instruction": "x"}`},
		{name: "unknown type", reply: `{"type": "poem"}`},
		{name: "instruction without text", reply: `{"type": "instruction"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := newFakeOracle().reply("classifier", tt.reply)

			_, err := NewClassifier(oracle, "m").Classify(context.Background(), "q", classifierRecords())
			assert.ErrorIs(t, err, errors.ErrParseFailure)
		})
	}
}

func TestClassifier_DebtToEquityFallback(t *testing.T) {
	oracle := newFakeOracle().reply("classifier", "You want the Debt to Equity Ratio, which I would compute as debt over equity.")

	intent, err := NewClassifier(oracle, "m").Classify(context.Background(), "d/e", classifierRecords())
	require.NoError(t, err)

	assert.Equal(t, IntentInstruction, intent.Kind)
	assert.Equal(t, debtToEquityInstruction, intent.Text)
}

func TestClassifier_FallbackNotUsedForOracleOutage(t *testing.T) {
	oracle := newFakeOracle().fail("classifier", errors.ErrOracleUnavailable)

	_, err := NewClassifier(oracle, "m").Classify(context.Background(), "debt to equity ratio", classifierRecords())
	assert.ErrorIs(t, err, errors.ErrOracleUnavailable)
}
