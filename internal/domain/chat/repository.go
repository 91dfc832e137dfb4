package chat

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for chat sessions and their messages
// Implementation is in internal/repository/postgres/chat_session.go
type Repository interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*Session, error)
	ListSessionsByUser(ctx context.Context, userID string) ([]*Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	// AppendMessages stores messages in order and bumps the session's updated_at
	AppendMessages(ctx context.Context, sessionID uuid.UUID, messages []*Message) error
	ListMessages(ctx context.Context, sessionID uuid.UUID) ([]*Message, error)
}
