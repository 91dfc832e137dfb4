package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"finsight/internal/domain/chat"
	"finsight/pkg/errors"
)

// Compile-time check
var _ chat.Repository = (*ChatRepository)(nil)

// ChatRepository implements chat.Repository using PostgreSQL
type ChatRepository struct {
	db DBTX
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db DBTX) *ChatRepository {
	return &ChatRepository{db: db}
}

// CreateSession inserts a new session
func (r *ChatRepository) CreateSession(ctx context.Context, s *chat.Session) error {
	query := `
		INSERT INTO chat_sessions (id, user_id, title, created_at, updated_at)
		VALUES (:id, :user_id, :title, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return errors.Wrap(err, "failed to create chat session")
	}
	return nil
}

// GetSession retrieves a session by ID
func (r *ChatRepository) GetSession(ctx context.Context, id uuid.UUID) (*chat.Session, error) {
	var s chat.Session
	query := `SELECT id, user_id, title, created_at, updated_at FROM chat_sessions WHERE id = $1`

	err := r.db.GetContext(ctx, &s, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get chat session")
	}
	return &s, nil
}

// ListSessionsByUser returns a user's sessions, most recently updated first
func (r *ChatRepository) ListSessionsByUser(ctx context.Context, userID string) ([]*chat.Session, error) {
	var sessions []*chat.Session
	query := `
		SELECT id, user_id, title, created_at, updated_at
		FROM chat_sessions
		WHERE user_id = $1
		ORDER BY updated_at DESC`

	if err := r.db.SelectContext(ctx, &sessions, query, userID); err != nil {
		return nil, errors.Wrap(err, "failed to list chat sessions")
	}
	return sessions, nil
}

// DeleteSession removes a session; messages go with it via ON DELETE CASCADE
func (r *ChatRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete chat session")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return errors.ErrNotFound
	}
	return nil
}

// AppendMessages touches the session and inserts messages in order
func (r *ChatRepository) AppendMessages(ctx context.Context, sessionID uuid.UUID, messages []*chat.Message) error {
	res, err := r.db.ExecContext(ctx, `UPDATE chat_sessions SET updated_at = NOW() WHERE id = $1`, sessionID)
	if err != nil {
		return errors.Wrap(err, "failed to touch chat session")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "chat session %s", sessionID)
	}

	query := `
		INSERT INTO chat_messages (id, session_id, sender, type, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, m := range messages {
		_, err := r.db.ExecContext(ctx, query,
			m.ID, sessionID, m.Sender, m.Type, []byte(m.Content), m.CreatedAt,
		)
		if err != nil {
			return errors.Wrapf(err, "failed to insert chat message %s", m.ID)
		}
	}
	return nil
}

// ListMessages returns a session's messages in insertion order
func (r *ChatRepository) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]*chat.Message, error) {
	var messages []*chat.Message
	query := `
		SELECT id, session_id, sender, type, content, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at, id`

	if err := r.db.SelectContext(ctx, &messages, query, sessionID); err != nil {
		return nil, errors.Wrap(err, "failed to list chat messages")
	}
	return messages, nil
}
