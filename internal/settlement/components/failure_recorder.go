package components

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/domain/uow"
	"github.com/grymey-ledger/internal/logger"
	"github.com/grymey-ledger/internal/settlement/service"
)

type FailureRecorderImpl struct {
	unitOfWork    uow.UnitOfWork
	outboxManager service.OutboxManager
	references    service.ReferenceGenerator
	logger        *slog.Logger
}

func NewFailureRecorder(unitOfWork uow.UnitOfWork, outboxManager service.OutboxManager, references service.ReferenceGenerator, logger *slog.Logger) service.FailureRecorder {
	return &FailureRecorderImpl{
		unitOfWork:    unitOfWork,
		outboxManager: outboxManager,
		references:    references,
		logger:        logger,
	}
}

// RecordFailure stores a failed transaction for a rejected transfer. It runs in
// its own unit of work so the record survives the caller's rollback; no wallet
// is touched.
func (r *FailureRecorderImpl) RecordFailure(ctx context.Context, request *transaction.TransferRequest, failureReason string) error {
	log := logger.FromContext(ctx, r.logger)

	now := time.Now().UTC()
	txn := transaction.New(r.references.Generate(request.Prefix), request.Type, request.HeadlineAmount(), request.Currency, now)
	txn.SenderID = request.SenderID
	txn.ReceiverID = request.ReceiverID
	txn.Ghost = request.Ghost
	txn.Metadata = request.Metadata
	if err := txn.Fail(failureReason, now); err != nil {
		return err
	}

	log.Info("Recording failed transaction", "ref", txn.Reference, "type", txn.Type, "reason", failureReason)

	err := r.unitOfWork.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		if err := repos.Transactions().Create(ctx, txn); err != nil {
			return fmt.Errorf("failed to create failed transaction %s: %w", txn.Reference, err)
		}
		return r.outboxManager.CreateOutboxEntry(ctx, repos, txn, nil)
	})
	if err != nil {
		log.Error("Failed to record failed transaction", "ref", txn.Reference, "error", err)
		return err
	}

	log.Info("Successfully recorded failed transaction", "ref", txn.Reference)
	return nil
}
