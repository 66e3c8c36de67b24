package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/domain/uow"
	"github.com/grymey-ledger/internal/domain/wallet"
)

// TransferEngine moves value between accounts as one balanced set of legs.
// It runs inside the caller's unit of work and never commits on its own.
type TransferEngine interface {
	Transfer(ctx context.Context, repos uow.Repositories, request *transaction.TransferRequest) (*transaction.Transaction, error)

	// Settle applies legs against a held transaction and completes it
	Settle(ctx context.Context, repos uow.Repositories, transactionID uuid.UUID, legs []transaction.Leg, receiverID string) (*transaction.Transaction, error)

	// Reverse applies compensating legs against a held transaction and marks it reversed
	Reverse(ctx context.Context, repos uow.Repositories, transactionID uuid.UUID, legs []transaction.Leg) (*transaction.Transaction, error)
}

// LedgerStore applies balance changes to wallets, one ledger entry per change.
// Mutations require the caller's context to hold the owner's wallet lock.
type LedgerStore interface {
	GetBalance(ctx context.Context, repos uow.Repositories, ownerID string, mode wallet.Mode) (int64, error)
	Debit(ctx context.Context, repos uow.Repositories, ownerID string, mode wallet.Mode, amount int64, transactionID uuid.UUID) (*wallet.LedgerEntry, error)
	Credit(ctx context.Context, repos uow.Repositories, ownerID string, mode wallet.Mode, amount int64, transactionID uuid.UUID, create bool) (*wallet.LedgerEntry, error)
}

// LegValidator checks a transfer request before anything is written
type LegValidator interface {
	Validate(ctx context.Context, repos uow.Repositories, request *transaction.TransferRequest) error
	ValidateLegs(ctx context.Context, repos uow.Repositories, legs []transaction.Leg) error
}

// OutboxManager handles the creation of outbox entries for settled transactions
type OutboxManager interface {
	CreateOutboxEntry(ctx context.Context, repos uow.Repositories, txn *transaction.Transaction, legs []transaction.Leg) error
}

// FailureRecorder records rejected transfers outside the aborted unit of work
type FailureRecorder interface {
	RecordFailure(ctx context.Context, request *transaction.TransferRequest, failureReason string) error
}

// LockManager hands out ordered resource locks carried on the context
type LockManager interface {
	Acquire(ctx context.Context, keys ...string) (context.Context, func(), error)
}

type ReferenceGenerator interface {
	Generate(prefix string) string
}

// EntitlementChecker decides whether a user may unlock a jar before it matures
type EntitlementChecker interface {
	CanUnlockEarly(ctx context.Context, userID string, jarID uuid.UUID) (bool, error)
}

// AllowEarlyUnlock is the default EntitlementChecker
type AllowEarlyUnlock struct{}

func (AllowEarlyUnlock) CanUnlockEarly(ctx context.Context, userID string, jarID uuid.UUID) (bool, error) {
	return true, nil
}
