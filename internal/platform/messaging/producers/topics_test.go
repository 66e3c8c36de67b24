package producers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/grymey-ledger/internal/config"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTopicAdmin struct {
	readErrs   []error
	partitions []kafka.Partition
	reads      int
	created    []kafka.TopicConfig
	createErr  error
}

func (s *stubTopicAdmin) ReadPartitions(...string) ([]kafka.Partition, error) {
	s.reads++
	if len(s.readErrs) > 0 {
		err := s.readErrs[0]
		s.readErrs = s.readErrs[1:]
		return nil, err
	}
	return s.partitions, nil
}

func (s *stubTopicAdmin) CreateTopics(topics ...kafka.TopicConfig) error {
	s.created = append(s.created, topics...)
	return s.createErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTopicConfig_Defaults(t *testing.T) {
	tc := topicConfig(&config.KafkaConfig{}, "ledger.transactions")
	assert.Equal(t, "ledger.transactions", tc.Topic)
	assert.Equal(t, 1, tc.NumPartitions)
	assert.Equal(t, 1, tc.ReplicationFactor)

	tc = topicConfig(&config.KafkaConfig{NumPartitions: 6, ReplicationFactor: 3}, "ledger.dlq")
	assert.Equal(t, 6, tc.NumPartitions)
	assert.Equal(t, 3, tc.ReplicationFactor)
}

func TestEnsureTopic(t *testing.T) {
	ctx := context.Background()
	tc := kafka.TopicConfig{Topic: "ledger.transactions", NumPartitions: 3, ReplicationFactor: 1}

	t.Run("ExistingTopic", func(t *testing.T) {
		admin := &stubTopicAdmin{partitions: []kafka.Partition{{Topic: tc.Topic, ID: 0}}}

		require.NoError(t, ensureTopic(ctx, discardLogger(), admin, tc, 0))
		assert.Empty(t, admin.created)
	})

	t.Run("MissingTopicIsCreated", func(t *testing.T) {
		admin := &stubTopicAdmin{}

		require.NoError(t, ensureTopic(ctx, discardLogger(), admin, tc, 0))
		assert.Equal(t, 1, admin.reads)
		require.Len(t, admin.created, 1)
		assert.Equal(t, tc, admin.created[0])
	})

	t.Run("RetriesUntilMetadataSettles", func(t *testing.T) {
		admin := &stubTopicAdmin{
			readErrs:   []error{errors.New("leader not available"), errors.New("leader not available")},
			partitions: []kafka.Partition{{Topic: tc.Topic}},
		}

		require.NoError(t, ensureTopic(ctx, discardLogger(), admin, tc, 0))
		assert.Equal(t, 3, admin.reads)
		assert.Empty(t, admin.created)
	})

	t.Run("CreatesAfterExhaustingProbes", func(t *testing.T) {
		probeErr := errors.New("unknown topic")
		admin := &stubTopicAdmin{readErrs: []error{probeErr, probeErr, probeErr, probeErr, probeErr}}

		require.NoError(t, ensureTopic(ctx, discardLogger(), admin, tc, 0))
		assert.Equal(t, topicProbeAttempts, admin.reads)
		assert.Len(t, admin.created, 1)
	})

	t.Run("CreateFailure", func(t *testing.T) {
		admin := &stubTopicAdmin{createErr: errors.New("not authorized")}

		err := ensureTopic(ctx, discardLogger(), admin, tc, 0)
		assert.ErrorContains(t, err, "failed to create kafka topic ledger.transactions")
	})

	t.Run("CancelledWhileProbing", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		admin := &stubTopicAdmin{readErrs: []error{errors.New("broker down")}}

		err := ensureTopic(cancelled, discardLogger(), admin, tc, time.Hour)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, admin.created)
	})
}
