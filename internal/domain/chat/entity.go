package chat

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"finsight/pkg/errors"
)

// Sender identifies who authored a message
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

// Valid checks if sender is a known value
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAgent
}

// MessageType is the display kind of a message payload
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageTable MessageType = "table"
	MessageLatex MessageType = "latex"
	MessageGraph MessageType = "graph"
)

// Valid checks if the message type is one the renderer understands
func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageTable, MessageLatex, MessageGraph:
		return true
	default:
		return false
	}
}

// Session is a conversation owned by a user
type Session struct {
	ID        uuid.UUID `db:"id" json:"chatId"`
	UserID    string    `db:"user_id" json:"userId"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Message is one entry of a session. Content is stored as-is; for text it is a JSON string.
type Message struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	SessionID uuid.UUID       `db:"session_id" json:"chatId"`
	Sender    Sender          `db:"sender" json:"sender"`
	Type      MessageType     `db:"type" json:"type"`
	Content   json.RawMessage `db:"content" json:"content"`
	CreatedAt time.Time       `db:"created_at" json:"timestamp"`
}

// Validate checks a message before it is persisted
func (m *Message) Validate() error {
	if !m.Sender.Valid() {
		return errors.NewValidationError("sender", "must be user or agent", m.Sender)
	}
	if !m.Type.Valid() {
		return errors.NewValidationError("type", "must be text, table, latex or graph", m.Type)
	}
	if len(m.Content) == 0 || !json.Valid(m.Content) {
		return errors.NewValidationError("content", "must be valid JSON", string(m.Content))
	}
	return nil
}

// TextContent encodes plain text as message content.
func TextContent(text string) json.RawMessage {
	raw, _ := json.Marshal(text)
	return raw
}
