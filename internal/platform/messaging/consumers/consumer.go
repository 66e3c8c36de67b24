package consumers

import (
	"context"
	"log/slog"
	"time"

	"github.com/grymey-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, topic string, groupID string, handler MessageHandler) error
	Close() error
}

// KafkaReader wraps kafka.Reader methods for testing
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	defaultHandlerAttempts = 3
	defaultRetryDelay      = time.Second
)

// KafkaConsumer implements Consumer using Kafka. A message whose handler keeps
// failing is retried a bounded number of times and then skipped, so one bad
// record cannot stall its partition.
type KafkaConsumer struct {
	reader          KafkaReader
	logger          *slog.Logger
	handlerAttempts int
	retryDelay      time.Duration
	done            chan struct{}
}

func NewKafkaConsumer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig) *KafkaConsumer {
	startOffset := kafka.FirstOffset
	if cfg.StartOffset == kafka.LastOffset {
		startOffset = kafka.LastOffset
	}

	return &KafkaConsumer{
		logger: logger,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     []string{cfg.Brokers},
			Topic:       cfg.TransactionTopic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
			MaxWait:     cfg.MaxWait,
			StartOffset: startOffset,
		}),
		handlerAttempts: defaultHandlerAttempts,
		retryDelay:      defaultRetryDelay,
	}
}

// Subscribe processes messages from topic with handler on a background goroutine
func (c *KafkaConsumer) Subscribe(ctx context.Context, topic string, groupID string, handler MessageHandler) error {
	c.logger.Info("Subscribed to Kafka topic",
		"topic", topic,
		"group_id", groupID,
	)

	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		c.consume(ctx, topic, groupID, handler)
	}()

	return nil
}

// Done is closed once the consume loop has exited
func (c *KafkaConsumer) Done() <-chan struct{} {
	return c.done
}

func (c *KafkaConsumer) consume(ctx context.Context, topic string, groupID string, handler MessageHandler) {
	for {
		if ctx.Err() != nil {
			c.logger.Info("Context canceled, stopping consumer",
				"topic", topic,
				"group_id", groupID,
			)
			return
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.logger.Error("Failed to fetch message from Kafka",
				"topic", topic,
				"group_id", groupID,
				"error", err,
			)
			c.sleep(ctx)
			continue
		}

		c.logger.Debug("Received message from Kafka",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
		)

		if !c.handle(ctx, msg, handler) && ctx.Err() != nil {
			// Uncommitted, so the group redelivers it after restart
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("Failed to commit message",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"key", string(msg.Key),
				"error", err,
			)
			continue
		}

		c.logger.Debug("Message committed successfully",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"key", string(msg.Key),
		)
	}
}

// handle runs handler until it succeeds, attempts run out, or ctx ends
func (c *KafkaConsumer) handle(ctx context.Context, msg kafka.Message, handler MessageHandler) bool {
	attempts := c.handlerAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		err := handler(ctx, msg.Key, msg.Value)
		if err == nil {
			return true
		}

		c.logger.Error("Failed to process message",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"attempt", attempt,
			"error", err,
		)
		if attempt < attempts && !c.sleep(ctx) {
			return false
		}
	}

	c.logger.Warn("Skipping message after exhausting handler attempts",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"key", string(msg.Key),
	)
	return false
}

func (c *KafkaConsumer) sleep(ctx context.Context) bool {
	timer := time.NewTimer(c.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
