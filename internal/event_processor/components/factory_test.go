package components

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/config"
	"github.com/grymey-ledger/internal/domain/history"
	"github.com/grymey-ledger/internal/domain/outbox"
	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/event_processor/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHistory keeps upserted entries in memory
type recordingHistory struct {
	entries []*history.Entry
}

func (r *recordingHistory) Upsert(_ context.Context, entry *history.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recordingHistory) GetByReference(context.Context, string) ([]*history.Entry, error) {
	return r.entries, nil
}

func (r *recordingHistory) GetByUserID(context.Context, string, int, int) ([]*history.Entry, error) {
	return r.entries, nil
}

func (r *recordingHistory) CountByUserID(context.Context, string) (int64, error) {
	return int64(len(r.entries)), nil
}

type noopOutbox struct{}

func (noopOutbox) Create(context.Context, *outbox.Message) error               { return nil }
func (noopOutbox) GetPending(context.Context, int) ([]*outbox.Message, error) { return nil, nil }
func (noopOutbox) UpdateStatus(context.Context, int64, shared.OutboxStatus) error {
	return nil
}
func (noopOutbox) RecordFailure(context.Context, int64, int) (shared.OutboxStatus, error) {
	return shared.OutboxStatusPending, nil
}
func (noopOutbox) GetByTransactionID(context.Context, uuid.UUID) ([]*outbox.Message, error) {
	return nil, nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (noopPublisher) Close() error                                        { return nil }

func TestCreateProjectionService(t *testing.T) {
	repo := &recordingHistory{}
	cfg := &config.Config{WorkerPool: config.WorkerPoolConfig{Size: 5}}

	projectionService := CreateProjectionService(repo, slog.Default(), cfg)

	pooled, ok := projectionService.(*service.WorkerPoolProjectionService)
	require.True(t, ok)
	defer pooled.Shutdown()
	assert.Equal(t, 5, pooled.Capacity())

	err := projectionService.Project(context.Background(), &transaction.Event{
		TransactionID: uuid.New(),
		Reference:     "DEPAB12CD34EF",
		Type:          transaction.TypeDeposit,
		Status:        transaction.StatusCompleted,
		ReceiverID:    "alice",
		Legs: []transaction.EventLeg{
			{Kind: transaction.AccountWallet, OwnerID: "alice", Delta: 100000},
		},
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.Len(t, repo.entries, 1)
	assert.Equal(t, "alice", repo.entries[0].UserID)
}

func TestCreateOutboxPoller(t *testing.T) {
	cfg := &config.Config{Outbox: config.OutboxConfig{PollingInterval: time.Second, BatchSize: 10, MaxRetryAttempts: 3}}

	poller := CreateOutboxPoller(noopOutbox{}, noopPublisher{}, slog.Default(), cfg)

	assert.NotNil(t, poller)
}
