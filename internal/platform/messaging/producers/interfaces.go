package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessagePublisher is what the outbox relay hands settled transaction events to.
// key is the transaction id so every event of one transaction lands on one partition.
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value any) error
	Close() error
}

// DeadLetterPublisher parks history events the projection could not apply
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter is the part of *kafka.Writer the producers call
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var (
	_ KafkaWriter         = (*kafka.Writer)(nil)
	_ MessagePublisher    = (*TransactionEventProducer)(nil)
	_ DeadLetterPublisher = (*DLQProducer)(nil)
)
