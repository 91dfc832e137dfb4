package chat

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/pkg/errors"
)

type memoryRepo struct {
	sessions map[uuid.UUID]*Session
	messages map[uuid.UUID][]*Message
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		sessions: make(map[uuid.UUID]*Session),
		messages: make(map[uuid.UUID][]*Message),
	}
}

func (r *memoryRepo) CreateSession(_ context.Context, s *Session) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *memoryRepo) GetSession(_ context.Context, id uuid.UUID) (*Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return s, nil
}

func (r *memoryRepo) ListSessionsByUser(_ context.Context, userID string) ([]*Session, error) {
	var out []*Session
	for _, s := range r.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *memoryRepo) DeleteSession(_ context.Context, id uuid.UUID) error {
	if _, ok := r.sessions[id]; !ok {
		return errors.ErrNotFound
	}
	delete(r.sessions, id)
	delete(r.messages, id)
	return nil
}

func (r *memoryRepo) AppendMessages(_ context.Context, id uuid.UUID, msgs []*Message) error {
	if _, ok := r.sessions[id]; !ok {
		return errors.ErrNotFound
	}
	r.messages[id] = append(r.messages[id], msgs...)
	return nil
}

func (r *memoryRepo) ListMessages(_ context.Context, id uuid.UUID) ([]*Message, error) {
	return r.messages[id], nil
}

func TestService_NewSessionDefaults(t *testing.T) {
	svc := NewService(newMemoryRepo())

	session, err := svc.NewSession(context.Background(), "user-1", "")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, session.ID)
	assert.Equal(t, defaultTitle, session.Title)

	_, err = svc.NewSession(context.Background(), "", "")
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestService_AppendExchangeKeepsOrder(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	session, err := svc.NewSession(ctx, "user-1", "Ratios")
	require.NoError(t, err)

	replies := []*Message{
		{Type: MessageTable, Content: json.RawMessage(`[{"Year":"2022","AAPL":1.5}]`)},
		{Type: MessageText, Content: TextContent("Apple's ratio was 1.5")},
	}
	require.NoError(t, svc.AppendExchange(ctx, session.ID, "debt to equity of Apple 2022", replies))

	_, messages, err := svc.Get(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	assert.Equal(t, SenderUser, messages[0].Sender)
	assert.JSONEq(t, `"debt to equity of Apple 2022"`, string(messages[0].Content))
	assert.Equal(t, MessageTable, messages[1].Type)
	assert.Equal(t, SenderAgent, messages[1].Sender)
	assert.Equal(t, MessageText, messages[2].Type)
	assert.True(t, messages[1].CreatedAt.After(messages[0].CreatedAt))
	assert.True(t, messages[2].CreatedAt.After(messages[1].CreatedAt))
}

func TestService_AppendMessageValidates(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	session, err := svc.NewSession(ctx, "user-1", "")
	require.NoError(t, err)

	_, err = svc.AppendMessage(ctx, session.ID, "bot", MessageText, TextContent("hi"))
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	_, err = svc.AppendMessage(ctx, session.ID, SenderUser, "video", TextContent("hi"))
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	_, err = svc.AppendMessage(ctx, session.ID, SenderUser, MessageText, []byte("not json"))
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	msg, err := svc.AppendMessage(ctx, session.ID, SenderUser, MessageText, TextContent("hi"))
	require.NoError(t, err)
	assert.Equal(t, session.ID, msg.SessionID)
}

func TestService_DeleteMissing(t *testing.T) {
	svc := NewService(newMemoryRepo())

	err := svc.Delete(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
