package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/domain/chat"
	"finsight/internal/domain/report"
	"finsight/internal/testsupport"
	"finsight/pkg/errors"
)

func TestReportRepository_SnapshotIsStored(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewReportRepository(testDB.Tx())
	ctx := context.Background()

	snapshot := &report.Snapshot{
		ID:     uuid.New(),
		UserID: testsupport.UniqueUserID(),
		ChatID: uuid.New(),
		Exchanges: report.Exchanges{{
			SerialNumber: 1,
			UserMessage:  "plot Apple debt",
			AgentReplies: []report.AgentMessage{{Type: chat.MessageGraph, Content: []byte(`{"title":"Debt"}`)}},
		}},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateSnapshot(ctx, snapshot))

	var stored report.Exchanges
	require.NoError(t, testDB.Tx().GetContext(ctx, &stored, `SELECT exchanges FROM report_snapshots WHERE id = $1`, snapshot.ID))
	require.Len(t, stored, 1)
	assert.Equal(t, chat.MessageGraph, stored[0].AgentReplies[0].Type)
	assert.JSONEq(t, `{"title":"Debt"}`, string(stored[0].AgentReplies[0].Content))
}

func TestReportRepository_UpdateAndList(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewReportRepository(testDB.Tx())
	fixtures := NewTestFixtures(t, testDB.Tx())
	ctx := context.Background()

	userID := testsupport.UniqueUserID()
	older := fixtures.CreateReport(userID, time.Now().UTC().Add(-time.Hour))
	newer := fixtures.CreateReport(userID, time.Now().UTC())

	got, err := repo.GetReport(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, older.Name, got.Name)
	require.Len(t, got.Exchanges, 1)
	assert.Empty(t, got.Summaries)

	got.Summaries = append(got.Summaries, report.Summary{Name: "summary_1_2", StartExchange: 1, EndExchange: 2, Content: "Debt rose.", CreatedAt: time.Now().UTC()})
	got.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.UpdateReport(ctx, got))

	reports, err := repo.ListReportsByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, newer.ID, reports[0].ID)
	require.Len(t, reports[1].Summaries, 1)
	assert.Equal(t, "Debt rose.", reports[1].Summaries[0].Content)

	_, err = repo.GetReport(ctx, uuid.New())
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.ErrorIs(t, repo.UpdateReport(ctx, &report.Report{ID: uuid.New()}), errors.ErrNotFound)
}
