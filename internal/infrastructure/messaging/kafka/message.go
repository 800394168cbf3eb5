// Package kafka carries consolidation traffic over Kafka: ingested record
// batches in, completion events out, and failed batches to a dead-letter
// topic.
package kafka

import (
	"context"
	"time"
)

// Message is a consumed record.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// ProducerMessage is a record to publish.
type ProducerMessage struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// MessageHandler processes one message.  A returned error triggers retries.
type MessageHandler func(ctx context.Context, msg *Message) error

// Publisher is implemented by Producer.
type Publisher interface {
	Publish(ctx context.Context, msg *ProducerMessage) error
}

// TopicConfig describes a topic to create.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
	CleanupPolicy     string
	Configs           map[string]string
}

//Personal.AI order the ending
