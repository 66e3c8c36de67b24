package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/shared"
)

// Filter narrows a transaction listing
type Filter struct {
	Type   Type
	Status Status
	Limit  int
	Offset int
}

// Repository manages transaction persistence
type Repository interface {
	Create(ctx context.Context, txn *Transaction) error
	Update(ctx context.Context, txn *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	GetByReference(ctx context.Context, reference string) (*Transaction, error)
	ListByUser(ctx context.Context, userID string, filter Filter) ([]*Transaction, error)

	// SumOutgoing totals real completed or held transactions sent by userID since the given time
	SumOutgoing(ctx context.Context, userID string, types []Type, since time.Time) (int64, error)
}

// ErrTransactionNotFound indicates a missing transaction
type ErrTransactionNotFound struct {
	Key string // id or reference
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.Key
}

func (e ErrTransactionNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	return t.Key == "" || t.Key == e.Key
}

// ErrDuplicateReference indicates reference uniqueness violation
type ErrDuplicateReference struct {
	Reference string
}

func (e ErrDuplicateReference) Error() string {
	return "duplicate transaction reference: " + e.Reference
}
