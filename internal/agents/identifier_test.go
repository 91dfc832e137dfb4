package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/domain/financial"
	"finsight/pkg/errors"
)

func TestIdentifier_Identify(t *testing.T) {
	oracle := newFakeOracle().reply("identifier", "Sure! Here you go:\n```json\n"+`{
		"mapping": [
			{"ticker": "aapl", "year": 2022, "statement_type": "balance"},
			{"ticker": "AAPL", "year": "2022", "statement_type": "balance_sheet"},
			{"ticker": "GOOG", "year": "FY2021", "statement_type": "income"},
			{"ticker": "", "year": "2021", "statement_type": "income"},
			{"ticker": "MSFT", "year": "soon", "statement_type": "income"},
			{"ticker": "MSFT", "year": "2021", "statement_type": "equity"}
		]
	}`+"\n```")

	targets, err := NewIdentifier(oracle, "test-model").Identify(context.Background(), "Compare Apple and Google")
	require.NoError(t, err)

	assert.Equal(t, []Target{
		{Ticker: "AAPL", Year: "2022", Kind: financial.KindBalance},
		{Ticker: "GOOG", Year: "2021", Kind: financial.KindIncome},
	}, targets)
	assert.Contains(t, oracle.lastPrompt("identifier"), "Compare Apple and Google")
}

func TestIdentifier_EmptyMapping(t *testing.T) {
	oracle := newFakeOracle().reply("identifier", `{"mapping": []}`)

	targets, err := NewIdentifier(oracle, "m").Identify(context.Background(), "What is the weather?")
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestIdentifier_MissingMappingIsParseFailure(t *testing.T) {
	oracle := newFakeOracle().reply("identifier", `{"companies": ["AAPL"]}`)

	_, err := NewIdentifier(oracle, "m").Identify(context.Background(), "Apple")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrParseFailure))

	var pf *errors.ParseFailure
	require.True(t, errors.As(err, &pf))
	assert.Equal(t, "identifier", pf.Stage)
}

func TestIdentifier_OracleErrorPropagates(t *testing.T) {
	oracle := newFakeOracle().fail("identifier", errors.ErrOracleUnavailable)

	_, err := NewIdentifier(oracle, "m").Identify(context.Background(), "Apple")
	assert.ErrorIs(t, err, errors.ErrOracleUnavailable)
}
