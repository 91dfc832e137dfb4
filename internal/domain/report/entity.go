package report

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"finsight/internal/domain/chat"
	"finsight/pkg/errors"
)

// AgentMessage is one agent reply of an exchange.
type AgentMessage struct {
	Type    chat.MessageType `json:"type"`
	Content json.RawMessage  `json:"content"`
}

// Exchange is a user prompt with the agent replies that followed it.
// SerialNumber counts user prompts of the session from 1.
type Exchange struct {
	SerialNumber int            `json:"serialNumber"`
	UserMessage  string         `json:"userMessage"`
	AgentReplies []AgentMessage `json:"aiMessages"`
}

// Exchanges is stored as a JSONB array.
type Exchanges []Exchange

// Value implements driver.Valuer for JSONB columns
func (e Exchanges) Value() (driver.Value, error) {
	if e == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(e)
}

// Scan implements sql.Scanner for JSONB columns
func (e *Exchanges) Scan(src interface{}) error {
	return scanJSON(src, e)
}

// Summary condenses the exchanges StartExchange..EndExchange, both inclusive.
type Summary struct {
	Name          string    `json:"name"`
	StartExchange int       `json:"startEntity"`
	EndExchange   int       `json:"endEntity"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Summaries is stored as a JSONB array.
type Summaries []Summary

// Value implements driver.Valuer for JSONB columns
func (s Summaries) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSONB columns
func (s *Summaries) Scan(src interface{}) error {
	return scanJSON(src, s)
}

// Snapshot is a plain saved selection of exchanges.
type Snapshot struct {
	ID        uuid.UUID `db:"id" json:"reportId"`
	UserID    string    `db:"user_id" json:"userId"`
	ChatID    uuid.UUID `db:"chat_id" json:"chatId"`
	Exchanges Exchanges `db:"exchanges" json:"selectedEntities"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Report is a named selection of exchanges with summaries of the gaps between them.
// Saving into an existing report appends to both lists.
type Report struct {
	ID        uuid.UUID `db:"id" json:"reportId"`
	UserID    string    `db:"user_id" json:"userId"`
	ChatID    uuid.UUID `db:"chat_id" json:"chatId"`
	Name      string    `db:"name" json:"reportName"`
	Exchanges Exchanges `db:"exchanges" json:"selectedEntities"`
	Summaries Summaries `db:"summaries" json:"summaries"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

func validateExchanges(exchanges []Exchange) error {
	if exchanges == nil {
		return errors.NewValidationError("selectedEntities", "is required", nil)
	}
	for i, e := range exchanges {
		if e.UserMessage == "" {
			return errors.NewValidationError("selectedEntities", "userMessage is required", i)
		}
	}
	return nil
}

func scanJSON(src interface{}, dest interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.Newf("unsupported JSON source type %T", src)
	}
	return json.Unmarshal(data, dest)
}
