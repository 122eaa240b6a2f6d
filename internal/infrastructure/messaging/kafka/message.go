// Package kafka carries prediction requests and results over Apache Kafka
// using segmentio/kafka-go.  The consumer retries failed handlers with
// exponential backoff and parks messages it cannot process on a dead-letter
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

// Header returns the header value for key, or "".
func (m *Message) Header(key string) string {
	if m.Headers == nil {
		return ""
	}
	return m.Headers[key]
}

// ProducerMessage is a record to publish.
type ProducerMessage struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// MessageHandler processes one consumed message.
type MessageHandler func(ctx context.Context, msg *Message) error

// Publisher publishes single messages.  *Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, msg *ProducerMessage) error
}

// Message processing results reported to the observer.
const (
	ResultOK      = "ok"
	ResultRetry   = "retry"
	ResultDLQ     = "dlq"
	ResultDropped = "dropped"
)

// MessageObserver records the outcome of every consumed message.
type MessageObserver interface {
	RecordMessage(topic, result string, duration time.Duration)
}

type noopObserver struct{}

func (noopObserver) RecordMessage(string, string, time.Duration) {}

//Personal.AI order the ending
