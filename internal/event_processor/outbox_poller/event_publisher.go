package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grymey-ledger/internal/domain/outbox"
	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/grymey-ledger/internal/platform/messaging/producers"
)

// EventPublisher relays one outbox message to the broker
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// KafkaEventPublisher implements EventPublisher over a MessagePublisher
type KafkaEventPublisher struct {
	outboxRepo outbox.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

func NewEventPublisher(
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// PublishEvent writes the payload keyed by the transaction reference and then marks
// the row processed. A crash between the two republishes the event, which the
// projector absorbs because history upserts are idempotent.
func (p *KafkaEventPublisher) PublishEvent(ctx context.Context, message *outbox.Message) error {
	event, err := message.Event()
	if err != nil {
		p.logger.Error("Failed to unmarshal transaction event from outbox payload",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}

	if err := p.producer.Publish(ctx, message.PartitionKey(), message.Payload); err != nil {
		logger.Error("Failed to publish transaction event",
			"outbox_id", message.ID, "reference", message.Reference, "event_status", message.EventStatus, "error", err,
		)
		return fmt.Errorf("failed to publish outbox %d: %w", message.ID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		return fmt.Errorf("event for %s published, but failed to mark outbox %d as PROCESSED: %w", message.Reference, message.ID, err)
	}

	logger.Info("Outbox message published and marked as PROCESSED",
		"outbox_id", message.ID, "reference", message.Reference, "event_status", message.EventStatus,
	)
	return nil
}
