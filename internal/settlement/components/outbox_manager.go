package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grymey-ledger/internal/domain/outbox"
	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/domain/uow"
	"github.com/grymey-ledger/internal/logger"
	"github.com/grymey-ledger/internal/settlement/service"
)

type OutboxManagerImpl struct {
	logger *slog.Logger
}

func NewOutboxManager(logger *slog.Logger) service.OutboxManager {
	return &OutboxManagerImpl{
		logger: logger,
	}
}

// CreateOutboxEntry writes the event for a transaction that reached a terminal status
func (m *OutboxManagerImpl) CreateOutboxEntry(ctx context.Context, repos uow.Repositories, txn *transaction.Transaction, legs []transaction.Leg) error {
	log := logger.FromContext(ctx, m.logger)

	if !txn.Status.IsTerminal() {
		return shared.StateError{Resource: "transaction", ID: txn.ID.String(), Status: string(txn.Status), Operation: "publish"}
	}

	event := transaction.NewEvent(txn, legs, logger.CorrelationID(ctx))
	outboxMessage, err := outbox.NewMessage(event, event.OccurredAt)
	if err != nil {
		log.Error("Failed to create new outbox message (marshal payload)",
			"txn_id", txn.ID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message payload for tx %s: %w", txn.ID.String(), err)
	}

	if err = repos.Outbox().Create(ctx, outboxMessage); err != nil {
		log.Error("Failed to create outbox message",
			"txn_id", txn.ID.String(),
			"ref", txn.Reference,
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message for tx %s: %w", txn.ID.String(), err)
	}
	log.Info("Outbox message created successfully",
		"txn_id", txn.ID.String(),
		"status", txn.Status,
		"outbox_id", outboxMessage.ID,
	)

	return nil
}
