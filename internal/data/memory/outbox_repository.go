package memory

import (
	"cmp"
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/outbox"
	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/grymey-ledger/internal/domain/uow"
)

type outboxRepository struct {
	rows *staged[int64, *outbox.Message]
	seq  *atomic.Int64
}

func (r *outboxRepository) Create(ctx context.Context, m *outbox.Message) error {
	for _, existing := range r.rows.all() {
		if existing.TransactionID == m.TransactionID && existing.EventStatus == m.EventStatus {
			return outbox.ErrDuplicateMessage{TransactionID: m.TransactionID, EventStatus: m.EventStatus}
		}
	}
	m.ID = r.seq.Add(1)
	r.rows.put(m.ID, m)
	return nil
}

// GetPending returns the oldest pending messages
func (r *outboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	var out []*outbox.Message
	for _, m := range r.rows.all() {
		if m.Status == shared.OutboxStatusPending {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b *outbox.Message) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return page(out, limit, 0), nil
}

func (r *outboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	m, ok := r.rows.get(id)
	if !ok {
		return outbox.ErrMessageNotFound{ID: id}
	}
	m.Status = status
	now := time.Now()
	m.LastAttemptAt = &now
	r.rows.put(id, m)
	return nil
}

func (r *outboxRepository) RecordFailure(ctx context.Context, id int64, maxAttempts int) (shared.OutboxStatus, error) {
	m, ok := r.rows.get(id)
	if !ok {
		return "", outbox.ErrMessageNotFound{ID: id}
	}
	status := m.RecordFailure(maxAttempts, time.Now())
	r.rows.put(id, m)
	return status, nil
}

func (r *outboxRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*outbox.Message, error) {
	var out []*outbox.Message
	for _, m := range r.rows.all() {
		if m.TransactionID == transactionID {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b *outbox.Message) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// autoCommitOutbox serves the outbox poller, which works outside any unit of work
type autoCommitOutbox struct {
	store *Store
}

func (a *autoCommitOutbox) run(ctx context.Context, fn func(repo outbox.Repository) error) error {
	return a.store.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		return fn(repos.Outbox())
	})
}

func (a *autoCommitOutbox) Create(ctx context.Context, m *outbox.Message) error {
	return a.run(ctx, func(repo outbox.Repository) error { return repo.Create(ctx, m) })
}

func (a *autoCommitOutbox) GetPending(ctx context.Context, limit int) (msgs []*outbox.Message, err error) {
	err = a.run(ctx, func(repo outbox.Repository) error {
		msgs, err = repo.GetPending(ctx, limit)
		return err
	})
	return msgs, err
}

func (a *autoCommitOutbox) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	return a.run(ctx, func(repo outbox.Repository) error { return repo.UpdateStatus(ctx, id, status) })
}

func (a *autoCommitOutbox) RecordFailure(ctx context.Context, id int64, maxAttempts int) (status shared.OutboxStatus, err error) {
	err = a.run(ctx, func(repo outbox.Repository) error {
		status, err = repo.RecordFailure(ctx, id, maxAttempts)
		return err
	})
	return status, err
}

func (a *autoCommitOutbox) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (msgs []*outbox.Message, err error) {
	err = a.run(ctx, func(repo outbox.Repository) error {
		msgs, err = repo.GetByTransactionID(ctx, transactionID)
		return err
	})
	return msgs, err
}
