package producers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/grymey-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

const (
	topicProbeAttempts = 5
	topicProbeBackoff  = 2 * time.Second
)

// topicAdmin is the slice of *kafka.Conn used to provision topics
type topicAdmin interface {
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	CreateTopics(topics ...kafka.TopicConfig) error
}

// dialAndEnsureTopic connects to the first broker and provisions topic
func dialAndEnsureTopic(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig, topic string) error {
	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return fmt.Errorf("failed to dial kafka: %w", err)
	}
	defer conn.Close()

	return ensureTopic(ctx, logger, conn, topicConfig(cfg, topic), topicProbeBackoff)
}

func topicConfig(cfg *config.KafkaConfig, topic string) kafka.TopicConfig {
	tc := kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}
	if tc.NumPartitions <= 0 {
		tc.NumPartitions = 1
	}
	if tc.ReplicationFactor <= 0 {
		tc.ReplicationFactor = 1
	}
	return tc
}

// ensureTopic creates tc.Topic unless the broker already reports partitions for it.
// Partition reads are retried because a fresh broker answers with errors until
// its metadata settles.
func ensureTopic(ctx context.Context, logger *slog.Logger, admin topicAdmin, tc kafka.TopicConfig, backoff time.Duration) error {
	var lastErr error
	for attempt := 1; attempt <= topicProbeAttempts; attempt++ {
		partitions, err := admin.ReadPartitions(tc.Topic)
		if err == nil && len(partitions) > 0 {
			logger.Info("Kafka topic already exists", "topic", tc.Topic, "partitions", len(partitions))
			return nil
		}
		if err == nil {
			break
		}
		lastErr = err
		logger.Warn("Failed to read topic partitions", "topic", tc.Topic, "attempt", attempt, "error", err)

		if attempt == topicProbeAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("gave up probing topic %s: %w", tc.Topic, ctx.Err())
		case <-time.After(backoff):
		}
	}

	logger.Info("Creating Kafka topic",
		"topic", tc.Topic,
		"partitions", tc.NumPartitions,
		"replication_factor", tc.ReplicationFactor,
		"last_probe_error", lastErr,
	)
	if err := admin.CreateTopics(tc); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", tc.Topic, err)
	}
	return nil
}
