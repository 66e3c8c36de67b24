package mongo

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/grymey-ledger/internal/domain/history"
	"github.com/grymey-ledger/internal/domain/transaction"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestEntry(userID string, status transaction.Status) *history.Entry {
	return &history.Entry{
		TransactionID: uuid.New(),
		Reference:     "TRFAB12CD34EF",
		UserID:        userID,
		Type:          transaction.TypeTransfer,
		Status:        status,
		Amount:        -2500,
		Currency:      "NGN",
		Counterparty:  "bob",
		OccurredAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		ProjectedAt:   time.Date(2024, 5, 1, 12, 0, 1, 0, time.UTC),
	}
}

// toDoc renders an entry the way the server would return it
func toDoc(t *testing.T, entry *history.Entry) bson.D {
	raw, err := bson.Marshal(entry)
	require.NoError(t, err)
	var doc bson.D
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

func TestHistoryRepository_Upsert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("stores entry", func(mt *mtest.T) {
		repo := NewHistoryRepository(newTestLogger(), mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0}))

		err := repo.Upsert(context.Background(), newTestEntry("alice", transaction.StatusCompleted))
		assert.NoError(t, err)
	})

	mt.Run("stale pending entry is skipped", func(mt *mtest.T) {
		repo := NewHistoryRepository(newTestLogger(), mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.Upsert(context.Background(), newTestEntry("alice", transaction.StatusPending))
		assert.NoError(t, err)
	})

	mt.Run("server error", func(mt *mtest.T) {
		repo := NewHistoryRepository(newTestLogger(), mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad value",
		}))

		err := repo.Upsert(context.Background(), newTestEntry("alice", transaction.StatusCompleted))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to upsert history entry")
	})
}

func TestHistoryRepository_GetByReference(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "grymey_ledger." + HistoryCollectionName

	mt.Run("found", func(mt *mtest.T) {
		repo := NewHistoryRepository(newTestLogger(), mt.DB)
		alice := newTestEntry("alice", transaction.StatusCompleted)
		bob := *alice
		bob.UserID = "bob"
		bob.Amount = 2500
		bob.Counterparty = "alice"

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toDoc(t, alice), toDoc(t, &bob)))

		entries, err := repo.GetByReference(context.Background(), alice.Reference)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, alice.TransactionID, entries[0].TransactionID)
		assert.Equal(t, int64(2500), entries[1].Amount)
		assert.True(t, alice.OccurredAt.Equal(entries[0].OccurredAt))
	})

	mt.Run("not projected yet", func(mt *mtest.T) {
		repo := NewHistoryRepository(newTestLogger(), mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.GetByReference(context.Background(), "TRFMISSING")
		assert.ErrorIs(t, err, history.ErrEntryNotFound{})
	})
}

func TestHistoryRepository_GetByUserID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "grymey_ledger." + HistoryCollectionName

	mt.Run("page", func(mt *mtest.T) {
		repo := NewHistoryRepository(newTestLogger(), mt.DB)
		entry := newTestEntry("alice", transaction.StatusCompleted)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toDoc(t, entry)))

		entries, err := repo.GetByUserID(context.Background(), "alice", 10, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "alice", entries[0].UserID)
		assert.Equal(t, transaction.TypeTransfer, entries[0].Type)
	})

	mt.Run("count", func(mt *mtest.T) {
		repo := NewHistoryRepository(newTestLogger(), mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(3)}}))

		count, err := repo.CountByUserID(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})
}
