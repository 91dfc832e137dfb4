package chat

import (
	"context"
	"time"

	"github.com/google/uuid"

	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

const defaultTitle = "New chat"

// Service manages chat sessions
type Service struct {
	repo Repository
	log  *logger.Logger
}

// NewService constructs a chat service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, log: logger.Get().With("component", "chat_service")}
}

// NewSession opens an empty session for userID.
func (s *Service) NewSession(ctx context.Context, userID, title string) (*Session, error) {
	if userID == "" {
		return nil, errors.NewValidationError("userId", "is required", userID)
	}
	if title == "" {
		title = defaultTitle
	}

	now := time.Now().UTC()
	session := &Session{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, errors.Wrap(err, "create session")
	}

	s.log.Infow("Chat session created", "chat_id", session.ID, "user_id", userID)
	return session, nil
}

// Get returns a session and its messages in insertion order.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Session, []*Message, error) {
	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return nil, nil, errors.Wrap(err, "get session")
	}
	messages, err := s.repo.ListMessages(ctx, id)
	if err != nil {
		return nil, nil, errors.Wrap(err, "list messages")
	}
	return session, messages, nil
}

// ListByUser returns the user's sessions, most recently active first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Session, error) {
	if userID == "" {
		return nil, errors.NewValidationError("userId", "is required", userID)
	}
	sessions, err := s.repo.ListSessionsByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list sessions")
	}
	return sessions, nil
}

// Delete removes a session with all of its messages.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteSession(ctx, id); err != nil {
		return errors.Wrap(err, "delete session")
	}
	s.log.Infow("Chat session deleted", "chat_id", id)
	return nil
}

// AppendMessage stores a single message.
func (s *Service) AppendMessage(ctx context.Context, sessionID uuid.UUID, sender Sender, kind MessageType, content []byte) (*Message, error) {
	msg := newMessage(sessionID, sender, kind, content, time.Now().UTC())
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.AppendMessages(ctx, sessionID, []*Message{msg}); err != nil {
		return nil, errors.Wrap(err, "append message")
	}
	return msg, nil
}

// AppendExchange stores a user prompt followed by the agent's reply messages.
// Replies keep their order; timestamps are strictly increasing so reads return them as given.
func (s *Service) AppendExchange(ctx context.Context, sessionID uuid.UUID, prompt string, replies []*Message) error {
	now := time.Now().UTC()
	batch := make([]*Message, 0, len(replies)+1)
	batch = append(batch, newMessage(sessionID, SenderUser, MessageText, TextContent(prompt), now))

	for i, reply := range replies {
		msg := newMessage(sessionID, SenderAgent, reply.Type, reply.Content, now.Add(time.Duration(i+1)*time.Microsecond))
		if err := msg.Validate(); err != nil {
			return err
		}
		batch = append(batch, msg)
	}

	if err := s.repo.AppendMessages(ctx, sessionID, batch); err != nil {
		return errors.Wrap(err, "append exchange")
	}
	return nil
}

func newMessage(sessionID uuid.UUID, sender Sender, kind MessageType, content []byte, at time.Time) *Message {
	return &Message{
		ID:        uuid.New(),
		SessionID: sessionID,
		Sender:    sender,
		Type:      kind,
		Content:   content,
		CreatedAt: at,
	}
}
