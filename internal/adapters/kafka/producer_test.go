package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducer_ReusesWriterPerTopic(t *testing.T) {
	p := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}})

	w1 := p.getWriter(TopicQueryEvents)
	w2 := p.getWriter(TopicQueryEvents)
	w3 := p.getWriter("other")

	assert.Same(t, w1, w2)
	assert.NotSame(t, w1, w3)
	assert.Equal(t, TopicQueryEvents, w1.Topic)

	require.NoError(t, p.Close())
	assert.Empty(t, p.writers)
}

func TestProducer_PublishRejectsUnencodableEvent(t *testing.T) {
	p := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}})

	err := p.Publish(context.Background(), TopicQueryEvents, "k", make(chan int))
	assert.Error(t, err)
	assert.Empty(t, p.writers, "no writer is opened for an event that cannot be encoded")
}
