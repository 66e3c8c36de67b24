package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/domain/uow"
	"github.com/grymey-ledger/internal/logger"
	"github.com/grymey-ledger/internal/settlement/service"
)

type TransferEngineImpl struct {
	ledger          service.LedgerStore
	validator       service.LegValidator
	outboxManager   service.OutboxManager
	failureRecorder service.FailureRecorder
	references      service.ReferenceGenerator
	logger          *slog.Logger
}

func NewTransferEngine(
	ledger service.LedgerStore,
	validator service.LegValidator,
	outboxManager service.OutboxManager,
	failureRecorder service.FailureRecorder,
	references service.ReferenceGenerator,
	logger *slog.Logger,
) service.TransferEngine {
	return &TransferEngineImpl{
		ledger:          ledger,
		validator:       validator,
		outboxManager:   outboxManager,
		failureRecorder: failureRecorder,
		references:      references,
		logger:          logger,
	}
}

// Transfer validates the legs, records a pending transaction, applies the wallet
// legs and completes the transaction unless the request holds it open.
func (e *TransferEngineImpl) Transfer(ctx context.Context, repos uow.Repositories, request *transaction.TransferRequest) (*transaction.Transaction, error) {
	log := logger.FromContext(ctx, e.logger)

	// 1. Validate
	if err := e.validator.Validate(ctx, repos, request); err != nil {
		log.Warn("Transfer rejected", "type", request.Type, "sender_id", request.SenderID, "receiver_id", request.ReceiverID, "error", err)

		if reason, ok := failureReasonFor(err); ok {
			if recordErr := e.failureRecorder.RecordFailure(ctx, request, string(reason)); recordErr != nil {
				log.Error("Failed to record transfer failure", "type", request.Type, "error", recordErr)
			}
		}
		return nil, err
	}

	// 2. Record the pending transaction
	now := time.Now().UTC()
	txn := transaction.New(e.references.Generate(request.Prefix), request.Type, request.HeadlineAmount(), request.Currency, now)
	txn.SenderID = request.SenderID
	txn.ReceiverID = request.ReceiverID
	txn.Ghost = request.Ghost
	txn.Metadata = request.Metadata

	if err := repos.Transactions().Create(ctx, txn); err != nil {
		log.Error("Failed to create transaction", "ref", txn.Reference, "error", err)
		return nil, fmt.Errorf("failed to create transaction %s: %w", txn.Reference, err)
	}

	// 3. Move the money
	if err := e.applyLegs(ctx, repos, txn.ID, request.Legs); err != nil {
		log.Warn("Failed to apply transfer legs", "ref", txn.Reference, "error", err)
		return nil, err
	}

	if request.Hold {
		log.Info("Transfer held", "ref", txn.Reference, "type", txn.Type, "amount", txn.Amount)
		return txn, nil
	}

	// 4. Complete and publish
	if err := txn.Complete(time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := e.finish(ctx, repos, txn, request.Legs); err != nil {
		return nil, err
	}

	log.Info("Transfer completed", "ref", txn.Reference, "type", txn.Type, "amount", txn.Amount)
	return txn, nil
}

func (e *TransferEngineImpl) Settle(ctx context.Context, repos uow.Repositories, transactionID uuid.UUID, legs []transaction.Leg, receiverID string) (*transaction.Transaction, error) {
	txn, err := e.applyToHeld(ctx, repos, transactionID, legs, "settle")
	if err != nil {
		return nil, err
	}

	if receiverID != "" {
		txn.ReceiverID = receiverID
	}
	if err = txn.Complete(time.Now().UTC()); err != nil {
		return nil, err
	}
	if err = e.finish(ctx, repos, txn, legs); err != nil {
		return nil, err
	}

	logger.FromContext(ctx, e.logger).Info("Held transfer settled", "ref", txn.Reference, "receiver_id", txn.ReceiverID)
	return txn, nil
}

func (e *TransferEngineImpl) Reverse(ctx context.Context, repos uow.Repositories, transactionID uuid.UUID, legs []transaction.Leg) (*transaction.Transaction, error) {
	txn, err := e.applyToHeld(ctx, repos, transactionID, legs, "reverse")
	if err != nil {
		return nil, err
	}

	if err = txn.Reverse(time.Now().UTC()); err != nil {
		return nil, err
	}
	if err = e.finish(ctx, repos, txn, legs); err != nil {
		return nil, err
	}

	logger.FromContext(ctx, e.logger).Info("Held transfer reversed", "ref", txn.Reference)
	return txn, nil
}

func (e *TransferEngineImpl) applyToHeld(ctx context.Context, repos uow.Repositories, transactionID uuid.UUID, legs []transaction.Leg, operation string) (*transaction.Transaction, error) {
	txn, err := repos.Transactions().GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Status != transaction.StatusPending {
		return nil, shared.StateError{Resource: "transaction", ID: txn.Reference, Status: string(txn.Status), Operation: operation}
	}

	if err = e.validator.ValidateLegs(ctx, repos, legs); err != nil {
		return nil, err
	}
	if err = e.applyLegs(ctx, repos, txn.ID, legs); err != nil {
		return nil, err
	}
	return txn, nil
}

// applyLegs debits before it credits so a failing debit leaves no credit behind.
// Holding and external legs are tracked by their owning record, not here.
func (e *TransferEngineImpl) applyLegs(ctx context.Context, repos uow.Repositories, transactionID uuid.UUID, legs []transaction.Leg) error {
	for _, leg := range legs {
		if leg.Account.Kind != transaction.AccountWallet || leg.Delta > 0 {
			continue
		}
		if _, err := e.ledger.Debit(ctx, repos, leg.Account.OwnerID, leg.Account.Mode, -leg.Delta, transactionID); err != nil {
			return err
		}
	}
	for _, leg := range legs {
		if leg.Account.Kind != transaction.AccountWallet || leg.Delta < 0 {
			continue
		}
		if _, err := e.ledger.Credit(ctx, repos, leg.Account.OwnerID, leg.Account.Mode, leg.Delta, transactionID, leg.Create); err != nil {
			return err
		}
	}
	return nil
}

func (e *TransferEngineImpl) finish(ctx context.Context, repos uow.Repositories, txn *transaction.Transaction, legs []transaction.Leg) error {
	if err := repos.Transactions().Update(ctx, txn); err != nil {
		logger.FromContext(ctx, e.logger).Error("Failed to update transaction", "ref", txn.Reference, "error", err)
		return fmt.Errorf("failed to update transaction %s: %w", txn.Reference, err)
	}
	return e.outboxManager.CreateOutboxEntry(ctx, repos, txn, legs)
}

// failureReasonFor picks the recorded reason for business rejections; anything
// else is not worth a failed transaction record
func failureReasonFor(err error) (shared.FailureReason, bool) {
	switch {
	case errors.Is(err, ErrLimitExceeded):
		return shared.FailureReasonLimitExceeded, true
	case errors.Is(err, shared.ErrInsufficientFunds):
		return shared.FailureReasonInsufficientFunds, true
	case errors.Is(err, shared.ErrNotFound):
		return shared.FailureReasonWalletNotFound, true
	case errors.Is(err, shared.ErrInvalidAmount):
		return shared.FailureReasonInvalidAmount, true
	}
	return "", false
}
