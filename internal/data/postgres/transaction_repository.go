package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, reference, sender_id, receiver_id, amount, currency, type, status, ghost, metadata, failure_reason, created_at, updated_at, completed_at`

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) *TransactionRepository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a transaction. References are unique across the ledger.
func (r *TransactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.querier.Exec(ctx, query,
		txn.ID,
		txn.Reference,
		txn.SenderID,
		txn.ReceiverID,
		txn.Amount,
		txn.Currency,
		txn.Type,
		txn.Status,
		txn.Ghost,
		txn.Metadata,
		txn.FailureReason,
		txn.CreatedAt,
		txn.UpdatedAt,
		txn.CompletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return transaction.ErrDuplicateReference{Reference: txn.Reference}
		}
		r.logger.Error("Failed to create transaction", "reference", txn.Reference, "error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// Update persists the mutable part of a transaction: its status and timestamps
func (r *TransactionRepository) Update(ctx context.Context, txn *transaction.Transaction) error {
	query := `
		UPDATE transactions
		SET status = $1, metadata = $2, failure_reason = $3, updated_at = $4, completed_at = $5
		WHERE id = $6
	`

	result, err := r.querier.Exec(ctx, query,
		txn.Status,
		txn.Metadata,
		txn.FailureReason,
		txn.UpdatedAt,
		txn.CompletedAt,
		txn.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update transaction", "reference", txn.Reference, "error", err)
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transaction.ErrTransactionNotFound{Key: txn.ID.String()}
	}

	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1
	`

	return r.getOne(ctx, query, id.String(), id)
}

func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE reference = $1
	`

	return r.getOne(ctx, query, reference, reference)
}

func (r *TransactionRepository) getOne(ctx context.Context, query, key string, arg any) (*transaction.Transaction, error) {
	txn, err := scanTransaction(r.querier.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{Key: key}
		}
		r.logger.Error("Failed to get transaction", "key", key, "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return txn, nil
}

// ListByUser returns transactions sent or received by userID, newest first.
// Empty filter fields match everything.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, filter transaction.Filter) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE (sender_id = $1 OR receiver_id = $1)
			AND ($2 = '' OR type = $2)
			AND ($3 = '' OR status = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`

	rows, err := r.querier.Query(ctx, query,
		userID,
		string(filter.Type),
		string(filter.Status),
		nullableLimit(filter.Limit),
		filter.Offset,
	)
	if err != nil {
		r.logger.Error("Failed to list transactions", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []*transaction.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			r.logger.Error("Failed to scan transaction", "error", err)
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over transactions", "error", err)
		return nil, fmt.Errorf("error iterating over transactions: %w", err)
	}

	return txns, nil
}

// SumOutgoing totals real completed or held transactions sent by userID since the given time
func (r *TransactionRepository) SumOutgoing(ctx context.Context, userID string, types []transaction.Type, since time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE sender_id = $1
			AND type = ANY($2)
			AND status IN ('completed', 'pending')
			AND NOT ghost
			AND created_at >= $3
	`

	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}

	var total int64
	if err := r.querier.QueryRow(ctx, query, userID, names, since).Scan(&total); err != nil {
		r.logger.Error("Failed to sum outgoing transactions", "user_id", userID, "error", err)
		return 0, fmt.Errorf("failed to sum outgoing transactions: %w", err)
	}

	return total, nil
}

func scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var txn transaction.Transaction
	err := row.Scan(
		&txn.ID,
		&txn.Reference,
		&txn.SenderID,
		&txn.ReceiverID,
		&txn.Amount,
		&txn.Currency,
		&txn.Type,
		&txn.Status,
		&txn.Ghost,
		&txn.Metadata,
		&txn.FailureReason,
		&txn.CreatedAt,
		&txn.UpdatedAt,
		&txn.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}
