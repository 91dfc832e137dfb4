package events

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// QueryEvent records how one question was handled.
type QueryEvent struct {
	ID          string    `json:"id"`
	ChatID      string    `json:"chat_id,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	Prompt      string    `json:"prompt"`
	Outcome     string    `json:"outcome"`
	Blocks      []string  `json:"blocks"`
	Steps       int       `json:"steps"`
	FailedSteps []string  `json:"failed_steps,omitempty"`
	DurationMs  int64     `json:"duration_ms"`
	Timestamp   time.Time `json:"timestamp"`
	Version     string    `json:"version"`
}

// NewQueryEvent creates an event with a fresh ID and the current time.
// Free-text fields are stripped of invalid UTF-8.
func NewQueryEvent(queryID uuid.UUID, chatID, userID, prompt, outcome string, duration time.Duration) *QueryEvent {
	return &QueryEvent{
		ID:         queryID.String(),
		ChatID:     chatID,
		UserID:     SanitizeUTF8(userID),
		Prompt:     SanitizeUTF8(prompt),
		Outcome:    outcome,
		Blocks:     []string{},
		DurationMs: duration.Milliseconds(),
		Timestamp:  time.Now().UTC(),
		Version:    "1.0",
	}
}

// SanitizeUTF8 drops invalid UTF-8 sequences, which the JSON encoder would otherwise replace.
func SanitizeUTF8(s string) string {
	return strings.ToValidUTF8(s, "")
}
