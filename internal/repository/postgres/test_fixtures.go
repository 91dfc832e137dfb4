package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"finsight/internal/domain/chat"
	"finsight/internal/domain/financial"
	"finsight/internal/domain/report"
	"finsight/internal/testsupport"
)

// TestFixtures provides factory methods for creating test data
type TestFixtures struct {
	db DBTX
	t  *testing.T
}

// NewTestFixtures creates a new test fixtures factory
func NewTestFixtures(t *testing.T, db DBTX) *TestFixtures {
	t.Helper()
	return &TestFixtures{db: db, t: t}
}

// StatementFixture holds the editable fields of a statement fixture
type StatementFixture struct {
	Ticker string
	Kind   financial.Kind
	Year   string
	Data   financial.Fields
}

// CreateStatement stores a statement and returns it
func (f *TestFixtures) CreateStatement(opts ...func(*StatementFixture)) *financial.Statement {
	f.t.Helper()

	debt, equity := 120.0, 60.0
	fixture := &StatementFixture{
		Ticker: testsupport.UniqueTicker(),
		Kind:   financial.KindBalance,
		Year:   "2022",
		Data: financial.Fields{
			"Total Debt":                           &debt,
			"Total Equity Gross Minority Interest": &equity,
		},
	}
	for _, opt := range opts {
		opt(fixture)
	}

	now := time.Now().UTC()
	s := &financial.Statement{
		ID:        uuid.New(),
		Ticker:    fixture.Ticker,
		Kind:      fixture.Kind,
		Year:      fixture.Year,
		Data:      fixture.Data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(f.t, NewStatementRepository(f.db).Upsert(context.Background(), s))
	return s
}

// CreateChatSession stores an empty session for userID
func (f *TestFixtures) CreateChatSession(userID string) *chat.Session {
	f.t.Helper()

	now := time.Now().UTC()
	s := &chat.Session{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     "fixture",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(f.t, NewChatRepository(f.db).CreateSession(context.Background(), s))
	return s
}

// CreateReport stores a named report with one exchange for userID
func (f *TestFixtures) CreateReport(userID string, createdAt time.Time) *report.Report {
	f.t.Helper()

	rep := &report.Report{
		ID:     uuid.New(),
		UserID: userID,
		ChatID: uuid.New(),
		Name:   testsupport.UniqueName("report"),
		Exchanges: report.Exchanges{{
			SerialNumber: 1,
			UserMessage:  "revenue of Apple 2022",
			AgentReplies: []report.AgentMessage{{Type: chat.MessageText, Content: chat.TextContent("394.3B")}},
		}},
		Summaries: report.Summaries{},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(f.t, NewReportRepository(f.db).CreateReport(context.Background(), rep))
	return rep
}
