package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/domain/financial"
	"finsight/pkg/errors"
)

func TestResolver_KeepsTargetOrderAndDropsMissing(t *testing.T) {
	source := newFakeSource().
		add("AAPL", financial.KindBalance, "2022", financial.Fields{"Total Debt": f64(120)}).
		add("GOOG", financial.KindBalance, "2022", financial.Fields{"Total Debt": f64(30)})
	source.fail["MSFT"] = errors.ErrUnavailable

	targets := []Target{
		{Ticker: "GOOG", Year: "2022", Kind: financial.KindBalance},
		{Ticker: "MSFT", Year: "2022", Kind: financial.KindBalance},
		{Ticker: "AAPL", Year: "2021", Kind: financial.KindBalance},
		{Ticker: "AAPL", Year: "2022", Kind: financial.KindBalance},
	}

	records, err := NewResolver(source, 2).Resolve(context.Background(), targets)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "GOOG", records[0].Ticker)
	assert.Equal(t, "AAPL", records[1].Ticker)
	assert.Equal(t, 30.0, *records[0].Fields["Total Debt"])
	assert.EqualValues(t, 4, source.lookups.Load())
}

func TestResolver_NothingFound(t *testing.T) {
	source := newFakeSource()

	_, err := NewResolver(source, 0).Resolve(context.Background(), []Target{
		{Ticker: "AAPL", Year: "1990", Kind: financial.KindIncome},
	})
	assert.ErrorIs(t, err, errors.ErrNoDataFound)
}

func TestResolver_Cancelled(t *testing.T) {
	source := newFakeSource().add("AAPL", financial.KindIncome, "2022", financial.Fields{"Revenue": f64(1)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewResolver(source, 4).Resolve(ctx, []Target{{Ticker: "AAPL", Year: "2022", Kind: financial.KindIncome}})
	assert.ErrorIs(t, err, context.Canceled)
}
