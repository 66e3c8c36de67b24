package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/transaction"
)

type transactionRepository struct {
	rows *staged[uuid.UUID, *transaction.Transaction]
}

func (r *transactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	if _, err := r.GetByReference(ctx, txn.Reference); err == nil {
		return transaction.ErrDuplicateReference{Reference: txn.Reference}
	}
	r.rows.put(txn.ID, txn)
	return nil
}

func (r *transactionRepository) Update(ctx context.Context, txn *transaction.Transaction) error {
	if _, ok := r.rows.get(txn.ID); !ok {
		return transaction.ErrTransactionNotFound{Key: txn.ID.String()}
	}
	r.rows.put(txn.ID, txn)
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	txn, ok := r.rows.get(id)
	if !ok {
		return nil, transaction.ErrTransactionNotFound{Key: id.String()}
	}
	return txn, nil
}

func (r *transactionRepository) GetByReference(ctx context.Context, reference string) (*transaction.Transaction, error) {
	for _, txn := range r.rows.all() {
		if txn.Reference == reference {
			return txn, nil
		}
	}
	return nil, transaction.ErrTransactionNotFound{Key: reference}
}

// ListByUser returns transactions sent or received by userID, newest first
func (r *transactionRepository) ListByUser(ctx context.Context, userID string, filter transaction.Filter) ([]*transaction.Transaction, error) {
	var out []*transaction.Transaction
	for _, txn := range r.rows.all() {
		if txn.SenderID != userID && txn.ReceiverID != userID {
			continue
		}
		if filter.Type != "" && txn.Type != filter.Type {
			continue
		}
		if filter.Status != "" && txn.Status != filter.Status {
			continue
		}
		out = append(out, txn)
	}

	slices.SortFunc(out, func(a, b *transaction.Transaction) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return page(out, filter.Limit, filter.Offset), nil
}

func (r *transactionRepository) SumOutgoing(ctx context.Context, userID string, types []transaction.Type, since time.Time) (int64, error) {
	var total int64
	for _, txn := range r.rows.all() {
		if txn.SenderID != userID || txn.Ghost || !countsTowardLimits(txn.Status) {
			continue
		}
		if !slices.Contains(types, txn.Type) || txn.CreatedAt.Before(since) {
			continue
		}
		total += txn.Amount
	}
	return total, nil
}

// countsTowardLimits is true for money that left, or is held away from, the sender
func countsTowardLimits(status transaction.Status) bool {
	return status == transaction.StatusCompleted || status == transaction.StatusPending
}
