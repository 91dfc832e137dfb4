package events

import (
	"context"

	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// Producer is the broker client events are written to.
type Producer interface {
	Publish(ctx context.Context, topic string, key string, event interface{}) error
}

// Publisher publishes query events to Kafka
type Publisher struct {
	producer Producer
	topic    string
	log      *logger.Logger
}

// NewPublisher creates a new event publisher
func NewPublisher(producer Producer, topic string) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    topic,
		log:      logger.Get().With("component", "event_publisher"),
	}
}

// PublishQuery publishes a query event keyed by chat, so one conversation stays on one partition.
func (p *Publisher) PublishQuery(ctx context.Context, event *QueryEvent) error {
	key := event.ChatID
	if key == "" {
		key = event.ID
	}

	if err := p.producer.Publish(ctx, p.topic, key, event); err != nil {
		p.log.Errorw("Failed to publish query event",
			"topic", p.topic,
			"query_id", event.ID,
			"error", err,
		)
		return errors.Wrap(err, "send to kafka")
	}

	p.log.Debugw("Query event published", "topic", p.topic, "query_id", event.ID, "outcome", event.Outcome)
	return nil
}
