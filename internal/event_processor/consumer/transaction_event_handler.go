package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/event_processor/service"
	"github.com/grymey-ledger/internal/platform/messaging/producers"
)

var errIncompleteEvent = errors.New("event has no transaction id or status")

// TransactionEventHandler projects transaction events consumed from Kafka
type TransactionEventHandler struct {
	projectionService service.ProjectionService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

func NewTransactionEventHandler(
	logger *slog.Logger,
	projectionService service.ProjectionService,
	producer producers.DeadLetterPublisher,
) *TransactionEventHandler {
	return &TransactionEventHandler{
		projectionService: projectionService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage decodes and projects one event. Undecodable events go to the DLQ;
// projection errors are returned so the consumer retries.
func (h *TransactionEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event transaction.Event
	err := json.Unmarshal(value, &event)
	if err == nil && (event.TransactionID == uuid.Nil || event.Status == "") {
		err = errIncompleteEvent
	}
	if err != nil {
		return h.deadLetter(ctx, key, value, err)
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received transaction event",
		"transaction_id", event.TransactionID.String(),
		"reference", event.Reference,
		"type", event.Type,
		"status", event.Status,
	)

	if err := h.projectionService.Project(ctx, &event); err != nil {
		logger.Error("Failed to project transaction event",
			"transaction_id", event.TransactionID.String(),
			"error", err,
		)
		return fmt.Errorf("projecting transaction %s failed: %w", event.TransactionID.String(), err)
	}

	return nil
}

func (h *TransactionEventHandler) deadLetter(ctx context.Context, key, value []byte, cause error) error {
	const unprocessable = "Unprocessable transaction event"
	h.logger.Error(unprocessable, "error", cause, "message_key", string(key))

	if h.producer != nil {
		reason := fmt.Sprintf("%s: %s", unprocessable, cause.Error())
		dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, reason)
		if dlqErr == nil {
			h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key))
			return nil
		}
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", dlqErr,
			"original_error", cause,
			"message_key", string(key),
		)
	}
	return fmt.Errorf("failed to decode transaction event: %w", cause)
}
