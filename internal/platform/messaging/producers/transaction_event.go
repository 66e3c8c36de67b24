package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/grymey-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// TransactionEventProducer relays transaction events to the transaction topic.
// Writes are synchronous so the outbox only marks a message processed once the
// broker has acknowledged it.
type TransactionEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewTransactionEventProducer creates the producer and ensures the topic exists
func NewTransactionEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*TransactionEventProducer, error) {
	if cfg.TransactionTopic == "" {
		return nil, fmt.Errorf("kafka transaction topic is not configured")
	}

	if err := dialAndEnsureTopic(ctx, logger, cfg, cfg.TransactionTopic); err != nil {
		return nil, fmt.Errorf("failed to ensure transaction topic %s exists: %w", cfg.TransactionTopic, err)
	}

	writer := &kafka.Writer{
		Addr: kafka.TCP(cfg.Brokers),
		// Events of one transaction share a key and so a partition, which keeps them ordered
		Balancer:     &kafka.Hash{},
		Topic:        cfg.TransactionTopic,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &TransactionEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.TransactionTopic,
	}, nil
}

// Publish marshals value to JSON unless it is already raw JSON
func (p *TransactionEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	var payload []byte
	switch v := value.(type) {
	case json.RawMessage:
		payload = v
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal transaction event: %w", err)
		}
		payload = encoded
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish transaction event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish transaction event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published transaction event",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *TransactionEventProducer) Close() error {
	p.logger.Info("Closing transaction event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
