package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/pkg/errors"
)

type recordingProducer struct {
	topic string
	key   string
	event interface{}
	err   error
}

func (p *recordingProducer) Publish(_ context.Context, topic string, key string, event interface{}) error {
	p.topic, p.key, p.event = topic, key, event
	return p.err
}

func TestSanitizeUTF8(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "valid string unchanged", input: "Apple 債務", expected: "Apple 債務"},
		{name: "empty string", input: "", expected: ""},
		{name: "invalid bytes removed", input: "Debt\xffRatio", expected: "DebtRatio"},
		{name: "multiple invalid sequences", input: "Start\xffMiddle\xfeEnd\xfd", expected: "StartMiddleEnd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeUTF8(tt.input))
		})
	}
}

func TestNewQueryEvent(t *testing.T) {
	id := uuid.New()
	event := NewQueryEvent(id, "", "user\xff-1", "apple d/e\xfe", "answered", 1500*time.Millisecond)

	assert.Equal(t, id.String(), event.ID)
	assert.Equal(t, "user-1", event.UserID)
	assert.Equal(t, "apple d/e", event.Prompt)
	assert.Equal(t, int64(1500), event.DurationMs)
	assert.NotNil(t, event.Blocks)
}

func TestPublisher_PublishQuery(t *testing.T) {
	producer := &recordingProducer{}
	pub := NewPublisher(producer, "finsight.query.events")

	event := NewQueryEvent(uuid.New(), "chat-1", "u", "q", "answered", time.Second)
	require.NoError(t, pub.PublishQuery(context.Background(), event))

	assert.Equal(t, "finsight.query.events", producer.topic)
	assert.Equal(t, "chat-1", producer.key)
	assert.Same(t, event, producer.event)

	noChat := NewQueryEvent(uuid.New(), "", "u", "q", "no_data", time.Second)
	require.NoError(t, pub.PublishQuery(context.Background(), noChat))
	assert.Equal(t, noChat.ID, producer.key)
}

func TestPublisher_PublishQueryError(t *testing.T) {
	producer := &recordingProducer{err: errors.ErrUnavailable}
	pub := NewPublisher(producer, "t")

	err := pub.PublishQuery(context.Background(), NewQueryEvent(uuid.New(), "", "", "q", "error", 0))
	assert.ErrorIs(t, err, errors.ErrUnavailable)
}
