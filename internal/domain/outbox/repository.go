package outbox

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/grymey-ledger/internal/domain/transaction"
)

// Repository persists outbox messages. Create runs inside the settlement unit of
// work; the rest is used by the relay.
type Repository interface {
	Create(ctx context.Context, message *Message) error
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error
	// RecordFailure bumps the attempt counter and flips the message to
	// failed_to_publish once maxAttempts is reached, in one step
	RecordFailure(ctx context.Context, id int64, maxAttempts int) (shared.OutboxStatus, error)
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*Message, error)
}

type ErrMessageNotFound struct {
	ID int64
}

func (e ErrMessageNotFound) Error() string {
	return fmt.Sprintf("outbox message %d not found", e.ID)
}

// ErrDuplicateMessage means the transaction already has a message for this status
type ErrDuplicateMessage struct {
	TransactionID uuid.UUID
	EventStatus   transaction.Status
}

func (e ErrDuplicateMessage) Error() string {
	return fmt.Sprintf("outbox already holds a %s event for transaction %s", e.EventStatus, e.TransactionID)
}
