package kafka

// Topic definitions for Kafka event streaming
const (
	// TopicQueryEvents is the default audit topic; KAFKA_QUERY_TOPIC overrides it
	TopicQueryEvents = "finsight.query.events"
)
