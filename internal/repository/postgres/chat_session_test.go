package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/domain/chat"
	"finsight/internal/testsupport"
	"finsight/pkg/errors"
)

func TestChatRepository_SessionLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewChatRepository(testDB.Tx())
	fixtures := NewTestFixtures(t, testDB.Tx())
	ctx := context.Background()

	userID := testsupport.UniqueUserID()
	session := fixtures.CreateChatSession(userID)

	got, err := repo.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)

	sessions, err := repo.ListSessionsByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	require.NoError(t, repo.DeleteSession(ctx, session.ID))
	_, err = repo.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteSession(ctx, session.ID), errors.ErrNotFound)
}

func TestChatRepository_AppendMessagesKeepsOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewChatRepository(testDB.Tx())
	fixtures := NewTestFixtures(t, testDB.Tx())
	ctx := context.Background()

	session := fixtures.CreateChatSession(testsupport.UniqueUserID())
	now := time.Now().UTC()

	messages := []*chat.Message{
		{ID: uuid.New(), Sender: chat.SenderUser, Type: chat.MessageText, Content: chat.TextContent("revenue of Apple 2022"), CreatedAt: now},
		{ID: uuid.New(), Sender: chat.SenderAgent, Type: chat.MessageTable, Content: json.RawMessage(`[{"Year":"2022","AAPL":394.3}]`), CreatedAt: now.Add(time.Millisecond)},
		{ID: uuid.New(), Sender: chat.SenderAgent, Type: chat.MessageText, Content: chat.TextContent("Apple earned 394.3B"), CreatedAt: now.Add(2 * time.Millisecond)},
	}
	require.NoError(t, repo.AppendMessages(ctx, session.ID, messages))

	stored, err := repo.ListMessages(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for i := range messages {
		assert.Equal(t, messages[i].ID, stored[i].ID)
	}
	assert.JSONEq(t, `[{"Year":"2022","AAPL":394.3}]`, string(stored[1].Content))
}

func TestChatRepository_AppendToMissingSession(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewChatRepository(testDB.Tx())

	err := repo.AppendMessages(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}
