package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/card"
	"github.com/grymey-ledger/internal/domain/circle"
	"github.com/grymey-ledger/internal/domain/escrow"
	"github.com/grymey-ledger/internal/domain/jar"
	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/grymey-ledger/internal/domain/split"
	"github.com/grymey-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// recordTable stores one kind of settlement record as a JSONB document.
// The version column guards updates; parties lists the users a listing may return it to.
type recordTable[T any] struct {
	querier  persistence.Querier
	logger   *slog.Logger
	table    string
	notFound func(uuid.UUID) error
}

func (t recordTable[T]) withTx(tx pgx.Tx) recordTable[T] {
	t.querier = tx
	return t
}

func (t recordTable[T]) create(ctx context.Context, id uuid.UUID, parties []string, record *T, version int, createdAt time.Time) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode %s record: %w", t.table, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, parties, data, version, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, t.table)

	if _, err := t.querier.Exec(ctx, query, id, parties, data, version, createdAt); err != nil {
		t.logger.Error("Failed to create record", "table", t.table, "id", id.String(), "error", err)
		return fmt.Errorf("failed to create %s record: %w", t.table, err)
	}

	return nil
}

func (t recordTable[T]) get(ctx context.Context, id uuid.UUID) (*T, error) {
	query := fmt.Sprintf(`
		SELECT data
		FROM %s
		WHERE id = $1
	`, t.table)

	var data []byte
	if err := t.querier.QueryRow(ctx, query, id).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, t.notFound(id)
		}
		t.logger.Error("Failed to get record", "table", t.table, "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get %s record: %w", t.table, err)
	}

	return t.decode(data)
}

// update writes record when the stored version still equals *version, then bumps *version.
// The bump happens before encoding so the stored document carries the new version.
func (t recordTable[T]) update(ctx context.Context, id uuid.UUID, parties []string, record *T, version *int) error {
	expected := *version
	*version = expected + 1

	data, err := json.Marshal(record)
	if err != nil {
		*version = expected
		return fmt.Errorf("failed to encode %s record: %w", t.table, err)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET parties = $1, data = $2, version = $3
		WHERE id = $4 AND version = $5
	`, t.table)

	result, err := t.querier.Exec(ctx, query, parties, data, expected+1, id, expected)
	if err != nil {
		*version = expected
		t.logger.Error("Failed to update record", "table", t.table, "id", id.String(), "error", err)
		return fmt.Errorf("failed to update %s record: %w", t.table, err)
	}

	if result.RowsAffected() == 0 {
		*version = expected
		return fmt.Errorf("%w: %s %s at version %d", shared.ErrConcurrentUpdate, t.table, id, expected)
	}

	return nil
}

// list returns records visible to userID, newest first. A limit of 0 returns all of them.
func (t recordTable[T]) list(ctx context.Context, userID string, limit, offset int) ([]*T, error) {
	query := fmt.Sprintf(`
		SELECT data
		FROM %s
		WHERE $1 = ANY(parties)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, t.table)

	rows, err := t.querier.Query(ctx, query, userID, nullableLimit(limit), offset)
	if err != nil {
		t.logger.Error("Failed to list records", "table", t.table, "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list %s records: %w", t.table, err)
	}
	defer rows.Close()

	var records []*T
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			t.logger.Error("Failed to scan record", "table", t.table, "error", err)
			return nil, fmt.Errorf("failed to scan %s record: %w", t.table, err)
		}
		record, err := t.decode(data)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		t.logger.Error("Error iterating over records", "table", t.table, "error", err)
		return nil, fmt.Errorf("error iterating over %s records: %w", t.table, err)
	}

	return records, nil
}

func (t recordTable[T]) decode(data []byte) (*T, error) {
	var record T
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode %s record: %w", t.table, err)
	}
	return &record, nil
}

// EscrowRepository implements escrow.Repository
type EscrowRepository struct {
	records recordTable[escrow.Escrow]
}

func NewEscrowRepository(logger *slog.Logger, db *persistence.PostgresDB) *EscrowRepository {
	return &EscrowRepository{records: recordTable[escrow.Escrow]{
		querier:  db.Pool(),
		logger:   logger,
		table:    "escrows",
		notFound: escrow.NotFound,
	}}
}

func (r *EscrowRepository) WithTx(tx pgx.Tx) escrow.Repository {
	return &EscrowRepository{records: r.records.withTx(tx)}
}

func escrowParties(e *escrow.Escrow) []string {
	return []string{e.SenderID, e.ReceiverID}
}

func (r *EscrowRepository) Create(ctx context.Context, e *escrow.Escrow) error {
	return r.records.create(ctx, e.ID, escrowParties(e), e, e.Version, e.CreatedAt)
}

func (r *EscrowRepository) Get(ctx context.Context, id uuid.UUID) (*escrow.Escrow, error) {
	return r.records.get(ctx, id)
}

func (r *EscrowRepository) Update(ctx context.Context, e *escrow.Escrow) error {
	return r.records.update(ctx, e.ID, escrowParties(e), e, &e.Version)
}

func (r *EscrowRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*escrow.Escrow, error) {
	return r.records.list(ctx, userID, limit, offset)
}

// SplitRepository implements split.Repository
type SplitRepository struct {
	records recordTable[split.SplitPayment]
}

func NewSplitRepository(logger *slog.Logger, db *persistence.PostgresDB) *SplitRepository {
	return &SplitRepository{records: recordTable[split.SplitPayment]{
		querier:  db.Pool(),
		logger:   logger,
		table:    "splits",
		notFound: split.NotFound,
	}}
}

func (r *SplitRepository) WithTx(tx pgx.Tx) split.Repository {
	return &SplitRepository{records: r.records.withTx(tx)}
}

func splitParties(s *split.SplitPayment) []string {
	parties := []string{s.CreatorID}
	for _, recipient := range s.Recipients {
		parties = append(parties, recipient.UserID)
	}
	return parties
}

func (r *SplitRepository) Create(ctx context.Context, s *split.SplitPayment) error {
	return r.records.create(ctx, s.ID, splitParties(s), s, s.Version, s.CreatedAt)
}

func (r *SplitRepository) Get(ctx context.Context, id uuid.UUID) (*split.SplitPayment, error) {
	return r.records.get(ctx, id)
}

func (r *SplitRepository) Update(ctx context.Context, s *split.SplitPayment) error {
	return r.records.update(ctx, s.ID, splitParties(s), s, &s.Version)
}

func (r *SplitRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*split.SplitPayment, error) {
	return r.records.list(ctx, userID, limit, offset)
}

// CircleRepository implements circle.Repository
type CircleRepository struct {
	records recordTable[circle.Circle]
}

func NewCircleRepository(logger *slog.Logger, db *persistence.PostgresDB) *CircleRepository {
	return &CircleRepository{records: recordTable[circle.Circle]{
		querier:  db.Pool(),
		logger:   logger,
		table:    "circles",
		notFound: circle.NotFound,
	}}
}

func (r *CircleRepository) WithTx(tx pgx.Tx) circle.Repository {
	return &CircleRepository{records: r.records.withTx(tx)}
}

// circleParties includes pending invitees so they can find the circle to accept
func circleParties(c *circle.Circle) []string {
	parties := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		parties = append(parties, m.UserID)
	}
	return parties
}

func (r *CircleRepository) Create(ctx context.Context, c *circle.Circle) error {
	return r.records.create(ctx, c.ID, circleParties(c), c, c.Version, c.CreatedAt)
}

func (r *CircleRepository) Get(ctx context.Context, id uuid.UUID) (*circle.Circle, error) {
	return r.records.get(ctx, id)
}

func (r *CircleRepository) Update(ctx context.Context, c *circle.Circle) error {
	return r.records.update(ctx, c.ID, circleParties(c), c, &c.Version)
}

func (r *CircleRepository) ListByMember(ctx context.Context, userID string) ([]*circle.Circle, error) {
	return r.records.list(ctx, userID, 0, 0)
}

// JarRepository implements jar.Repository
type JarRepository struct {
	records recordTable[jar.MoneyJar]
}

func NewJarRepository(logger *slog.Logger, db *persistence.PostgresDB) *JarRepository {
	return &JarRepository{records: recordTable[jar.MoneyJar]{
		querier:  db.Pool(),
		logger:   logger,
		table:    "jars",
		notFound: jar.NotFound,
	}}
}

func (r *JarRepository) WithTx(tx pgx.Tx) jar.Repository {
	return &JarRepository{records: r.records.withTx(tx)}
}

func (r *JarRepository) Create(ctx context.Context, j *jar.MoneyJar) error {
	return r.records.create(ctx, j.ID, []string{j.UserID}, j, j.Version, j.CreatedAt)
}

func (r *JarRepository) Get(ctx context.Context, id uuid.UUID) (*jar.MoneyJar, error) {
	return r.records.get(ctx, id)
}

func (r *JarRepository) Update(ctx context.Context, j *jar.MoneyJar) error {
	return r.records.update(ctx, j.ID, []string{j.UserID}, j, &j.Version)
}

func (r *JarRepository) ListByUser(ctx context.Context, userID string) ([]*jar.MoneyJar, error) {
	return r.records.list(ctx, userID, 0, 0)
}

// CardRepository implements card.Repository
type CardRepository struct {
	records recordTable[card.VirtualCard]
}

func NewCardRepository(logger *slog.Logger, db *persistence.PostgresDB) *CardRepository {
	return &CardRepository{records: recordTable[card.VirtualCard]{
		querier:  db.Pool(),
		logger:   logger,
		table:    "cards",
		notFound: card.NotFound,
	}}
}

func (r *CardRepository) WithTx(tx pgx.Tx) card.Repository {
	return &CardRepository{records: r.records.withTx(tx)}
}

func (r *CardRepository) Create(ctx context.Context, c *card.VirtualCard) error {
	return r.records.create(ctx, c.ID, []string{c.UserID}, c, c.Version, c.CreatedAt)
}

func (r *CardRepository) Get(ctx context.Context, id uuid.UUID) (*card.VirtualCard, error) {
	return r.records.get(ctx, id)
}

func (r *CardRepository) Update(ctx context.Context, c *card.VirtualCard) error {
	return r.records.update(ctx, c.ID, []string{c.UserID}, c, &c.Version)
}

func (r *CardRepository) ListByUser(ctx context.Context, userID string) ([]*card.VirtualCard, error) {
	return r.records.list(ctx, userID, 0, 0)
}
