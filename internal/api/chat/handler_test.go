package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/domain/chat"
	"finsight/pkg/errors"
)

type fakeSessions struct {
	sessions map[uuid.UUID]*chat.Session
	messages map[uuid.UUID][]*chat.Message
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		sessions: make(map[uuid.UUID]*chat.Session),
		messages: make(map[uuid.UUID][]*chat.Message),
	}
}

func (f *fakeSessions) NewSession(_ context.Context, userID, title string) (*chat.Session, error) {
	if userID == "" {
		return nil, errors.NewValidationError("userId", "is required", userID)
	}
	s := &chat.Session{ID: uuid.New(), UserID: userID, Title: title, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeSessions) Get(_ context.Context, id uuid.UUID) (*chat.Session, []*chat.Message, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, nil, errors.ErrNotFound
	}
	return s, f.messages[id], nil
}

func (f *fakeSessions) ListByUser(_ context.Context, userID string) ([]*chat.Session, error) {
	var out []*chat.Session
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessions) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.sessions[id]; !ok {
		return errors.ErrNotFound
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessions) AppendMessage(_ context.Context, id uuid.UUID, sender chat.Sender, kind chat.MessageType, content []byte) (*chat.Message, error) {
	if _, ok := f.sessions[id]; !ok {
		return nil, errors.ErrNotFound
	}
	msg := &chat.Message{ID: uuid.New(), SessionID: id, Sender: sender, Type: kind, Content: content, CreatedAt: time.Now()}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	f.messages[id] = append(f.messages[id], msg)
	return msg, nil
}

func newMux(sessions Sessions) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandler(sessions).Register(mux)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandler_SessionLifecycle(t *testing.T) {
	sessions := newFakeSessions()
	mux := newMux(sessions)

	rec := do(mux, http.MethodPost, "/api/chat/new", `{"userId": "u1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ChatID string `json:"chatId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ChatID)

	rec = do(mux, http.MethodPost, "/api/chat/"+created.ChatID+"/message", `{"sender": "user", "type": "text", "content": "hello"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(mux, http.MethodGet, "/api/chat/"+created.ChatID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		ChatID   string `json:"chatId"`
		Messages []struct {
			Sender  string          `json:"sender"`
			Type    string          `json:"type"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, created.ChatID, got.ChatID)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Sender)
	assert.JSONEq(t, `"hello"`, string(got.Messages[0].Content))

	rec = do(mux, http.MethodGet, "/api/chats/u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.ChatID)

	rec = do(mux, http.MethodDelete, "/api/chat/"+created.ChatID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(mux, http.MethodGet, "/api/chat/"+created.ChatID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Errors(t *testing.T) {
	mux := newMux(newFakeSessions())

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{name: "missing user", method: http.MethodPost, path: "/api/chat/new", body: `{}`, status: http.StatusBadRequest},
		{name: "malformed body", method: http.MethodPost, path: "/api/chat/new", body: `{`, status: http.StatusBadRequest},
		{name: "bad chat id", method: http.MethodGet, path: "/api/chat/xyz", status: http.StatusBadRequest},
		{name: "unknown chat", method: http.MethodDelete, path: "/api/chat/" + uuid.NewString(), status: http.StatusNotFound},
		{name: "append to unknown chat", method: http.MethodPost, path: "/api/chat/" + uuid.NewString() + "/message", body: `{"sender": "user", "type": "text", "content": "x"}`, status: http.StatusNotFound},
		{name: "empty user list", method: http.MethodGet, path: "/api/chats/nobody", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(mux, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestHandler_AppendValidates(t *testing.T) {
	sessions := newFakeSessions()
	s, err := sessions.NewSession(context.Background(), "u1", "")
	require.NoError(t, err)

	rec := do(newMux(sessions), http.MethodPost, "/api/chat/"+s.ID.String()+"/message", `{"sender": "robot", "type": "text", "content": "x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
