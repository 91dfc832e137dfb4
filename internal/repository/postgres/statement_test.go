package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/domain/financial"
	"finsight/internal/testsupport"
	"finsight/pkg/errors"
)

func TestStatementRepository_UpsertAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewStatementRepository(testDB.Tx())
	fixtures := NewTestFixtures(t, testDB.Tx())
	ctx := context.Background()

	stored := fixtures.CreateStatement()

	got, err := repo.Get(ctx, financial.Key{Ticker: stored.Ticker, Kind: stored.Kind, Year: stored.Year})
	require.NoError(t, err)
	assert.Equal(t, stored.ID, got.ID)
	require.NotNil(t, got.Data["Total Debt"])
	assert.Equal(t, 120.0, *got.Data["Total Debt"])
}

func TestStatementRepository_UpsertReplacesData(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewStatementRepository(testDB.Tx())
	fixtures := NewTestFixtures(t, testDB.Tx())
	ctx := context.Background()

	first := fixtures.CreateStatement()
	revenue := 394.3
	second := fixtures.CreateStatement(func(f *StatementFixture) {
		f.Ticker = first.Ticker
		f.Data = financial.Fields{"Total Revenue": &revenue, "Goodwill": nil}
	})

	assert.Equal(t, first.ID, second.ID, "conflicting upsert keeps the original row id")

	got, err := repo.Get(ctx, financial.Key{Ticker: first.Ticker, Kind: first.Kind, Year: first.Year})
	require.NoError(t, err)
	assert.NotContains(t, got.Data, "Total Debt")
	require.Contains(t, got.Data, "Goodwill")
	assert.Nil(t, got.Data["Goodwill"])
}

func TestStatementRepository_GetMissing(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewStatementRepository(testDB.Tx())

	_, err := repo.Get(context.Background(), financial.Key{Ticker: testsupport.UniqueTicker(), Kind: financial.KindIncome, Year: "1999"})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestStatementRepository_DeleteAndList(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewStatementRepository(testDB.Tx())
	fixtures := NewTestFixtures(t, testDB.Tx())
	ctx := context.Background()

	s2022 := fixtures.CreateStatement()
	fixtures.CreateStatement(func(f *StatementFixture) {
		f.Ticker = s2022.Ticker
		f.Year = "2021"
	})

	list, err := repo.ListByTicker(ctx, s2022.Ticker)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2021", list[0].Year)

	key := financial.Key{Ticker: s2022.Ticker, Kind: s2022.Kind, Year: s2022.Year}
	require.NoError(t, repo.Delete(ctx, key))
	assert.ErrorIs(t, repo.Delete(ctx, key), errors.ErrNotFound)
}
