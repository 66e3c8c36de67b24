// Package postgres provides PostgreSQL implementations of the domain repositories.
// Every repository can be bound to a pgx.Tx so that one settlement operation
// commits all of its writes together.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/wallet"
	"github.com/grymey-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// WalletRepository implements the wallet.Repository interface for PostgreSQL
type WalletRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewWalletRepository creates a new PostgreSQL wallet repository.
func NewWalletRepository(logger *slog.Logger, db *persistence.PostgresDB) *WalletRepository {
	return &WalletRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a copy of the repository that runs every statement inside tx
func (r *WalletRepository) WithTx(tx pgx.Tx) wallet.Repository {
	return &WalletRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Get loads the wallet row and holds a row lock on it until the surrounding
// transaction ends. Outside a transaction the lock is released immediately.
func (r *WalletRepository) Get(ctx context.Context, ownerID string, mode wallet.Mode) (*wallet.Wallet, error) {
	query := `
		SELECT id, owner_id, mode, balance, currency, version, created_at, updated_at
		FROM wallets
		WHERE owner_id = $1 AND mode = $2
		FOR UPDATE
	`

	var w wallet.Wallet
	err := r.querier.QueryRow(ctx, query, ownerID, mode).Scan(
		&w.ID,
		&w.OwnerID,
		&w.Mode,
		&w.Balance,
		&w.Currency,
		&w.Version,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrWalletNotFound{OwnerID: ownerID, Mode: mode}
		}
		r.logger.Error("Failed to get wallet", "owner_id", ownerID, "mode", string(mode), "error", err)
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return &w, nil
}

// Create stores a new wallet. A second wallet for the same owner and mode
// violates the unique constraint and is reported as a concurrent modification.
func (r *WalletRepository) Create(ctx context.Context, w *wallet.Wallet) error {
	query := `
		INSERT INTO wallets (id, owner_id, mode, balance, currency, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		w.ID,
		w.OwnerID,
		w.Mode,
		w.Balance,
		w.Currency,
		w.Version,
		w.CreatedAt,
		w.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return wallet.ErrConcurrentModification{WalletID: w.ID}
		}
		r.logger.Error("Failed to create wallet", "owner_id", w.OwnerID, "error", err)
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	return nil
}

// Update writes balance and version when the stored version still equals expectedVersion
func (r *WalletRepository) Update(ctx context.Context, w *wallet.Wallet, expectedVersion int) error {
	query := `
		UPDATE wallets
		SET balance = $1, version = $2, updated_at = $3
		WHERE id = $4 AND version = $5
	`

	result, err := r.querier.Exec(ctx, query,
		w.Balance,
		w.Version,
		w.UpdatedAt,
		w.ID,
		expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to update wallet", "id", w.ID.String(), "error", err)
		return fmt.Errorf("failed to update wallet: %w", err)
	}

	if result.RowsAffected() == 0 {
		return wallet.ErrConcurrentModification{WalletID: w.ID}
	}

	return nil
}

func (r *WalletRepository) AppendEntry(ctx context.Context, entry *wallet.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, wallet_id, transaction_id, amount, balance_before, balance_after, direction, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		entry.ID,
		entry.WalletID,
		entry.TransactionID,
		entry.Amount,
		entry.BalanceBefore,
		entry.BalanceAfter,
		entry.Direction,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to append ledger entry",
			"wallet_id", entry.WalletID.String(),
			"transaction_id", entry.TransactionID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	return nil
}

// ListEntries returns the newest entries first. A limit of 0 returns every entry.
func (r *WalletRepository) ListEntries(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]wallet.LedgerEntry, error) {
	query := `
		SELECT id, wallet_id, transaction_id, amount, balance_before, balance_after, direction, created_at
		FROM ledger_entries
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, walletID, nullableLimit(limit), offset)
	if err != nil {
		r.logger.Error("Failed to list ledger entries", "wallet_id", walletID.String(), "error", err)
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []wallet.LedgerEntry
	for rows.Next() {
		var entry wallet.LedgerEntry
		err := rows.Scan(
			&entry.ID,
			&entry.WalletID,
			&entry.TransactionID,
			&entry.Amount,
			&entry.BalanceBefore,
			&entry.BalanceAfter,
			&entry.Direction,
			&entry.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan ledger entry", "error", err)
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over ledger entries", "error", err)
		return nil, fmt.Errorf("error iterating over ledger entries: %w", err)
	}

	return entries, nil
}

func (r *WalletRepository) SumEntries(ctx context.Context, walletID uuid.UUID) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE wallet_id = $1
	`

	var total int64
	if err := r.querier.QueryRow(ctx, query, walletID).Scan(&total); err != nil {
		r.logger.Error("Failed to sum ledger entries", "wallet_id", walletID.String(), "error", err)
		return 0, fmt.Errorf("failed to sum ledger entries: %w", err)
	}

	return total, nil
}

// nullableLimit maps the "no limit" value 0 to SQL NULL, which LIMIT treats as unbounded
func nullableLimit(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}
