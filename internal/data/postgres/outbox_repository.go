package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/outbox"
	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/grymey-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

const outboxColumns = `id, transaction_id, reference, event_status, payload, status, attempts, created_at, last_attempt_at`

// OutboxRepository stores relay messages in transaction_outbox. The table holds
// at most one row per (transaction_id, event_status).
type OutboxRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewOutboxRepository(logger *slog.Logger, db *persistence.PostgresDB) *OutboxRepository {
	return &OutboxRepository{querier: db.Pool(), logger: logger}
}

// WithTx binds the repository to tx so a message commits with the ledger change it describes
func (r *OutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return &OutboxRepository{querier: tx, logger: r.logger}
}

func (r *OutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	query := `
		INSERT INTO transaction_outbox (transaction_id, reference, event_status, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		message.TransactionID,
		message.Reference,
		message.EventStatus,
		message.Payload,
		message.Status,
		message.Attempts,
		message.CreatedAt,
	).Scan(&message.ID)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return outbox.ErrDuplicateMessage{TransactionID: message.TransactionID, EventStatus: message.EventStatus}
	default:
		r.logger.Error("Failed to insert outbox message", "reference", message.Reference, "event_status", message.EventStatus, "error", err)
		return fmt.Errorf("failed to insert outbox message for %s: %w", message.Reference, err)
	}
}

// GetPending returns up to limit pending messages, oldest first, so events of a
// transaction are relayed in the order they were written
func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	query := `SELECT ` + outboxColumns + `
		FROM transaction_outbox
		WHERE status = $1
		ORDER BY id ASC
		LIMIT $2
	`

	rows, err := r.querier.Query(ctx, query, shared.OutboxStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending outbox messages: %w", err)
	}
	return collectMessages(rows)
}

func (r *OutboxRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*outbox.Message, error) {
	query := `SELECT ` + outboxColumns + `
		FROM transaction_outbox
		WHERE transaction_id = $1
		ORDER BY id ASC
	`

	rows, err := r.querier.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox messages of %s: %w", transactionID, err)
	}
	return collectMessages(rows)
}

func collectMessages(rows pgx.Rows) ([]*outbox.Message, error) {
	defer rows.Close()

	var messages []*outbox.Message
	for rows.Next() {
		var m outbox.Message
		if err := rows.Scan(
			&m.ID,
			&m.TransactionID,
			&m.Reference,
			&m.EventStatus,
			&m.Payload,
			&m.Status,
			&m.Attempts,
			&m.CreatedAt,
			&m.LastAttemptAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read outbox messages: %w", err)
	}
	return messages, nil
}

func (r *OutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	query := `
		UPDATE transaction_outbox
		SET status = $1, last_attempt_at = $2
		WHERE id = $3
	`

	result, err := r.querier.Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to update outbox status", "outbox_id", id, "status", status, "error", err)
		return fmt.Errorf("failed to set outbox message %d to %s: %w", id, status, err)
	}
	if result.RowsAffected() == 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}
	return nil
}

// RecordFailure increments attempts and decides the final status in the same
// statement, so concurrent relays cannot undercount
func (r *OutboxRepository) RecordFailure(ctx context.Context, id int64, maxAttempts int) (shared.OutboxStatus, error) {
	query := `
		UPDATE transaction_outbox
		SET attempts = attempts + 1,
			last_attempt_at = $1,
			status = CASE WHEN attempts + 1 >= $2 THEN $3 ELSE status END
		WHERE id = $4
		RETURNING status
	`

	var status string
	err := r.querier.QueryRow(ctx, query, time.Now().UTC(), maxAttempts, shared.OutboxStatusFailedToPublish, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", outbox.ErrMessageNotFound{ID: id}
	}
	if err != nil {
		r.logger.Error("Failed to record outbox failure", "outbox_id", id, "error", err)
		return "", fmt.Errorf("failed to record failure of outbox message %d: %w", id, err)
	}
	return shared.OutboxStatus(status), nil
}
