// Package mongo stores the read-side transaction history projected from
// published transaction events.
package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/grymey-ledger/internal/domain/history"
	"github.com/grymey-ledger/internal/domain/transaction"
)

const (
	// HistoryCollectionName is the name of the history collection in MongoDB
	HistoryCollectionName = "transaction_history"
)

// HistoryRepository implements the history.Repository interface for MongoDB
type HistoryRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewHistoryRepository creates a new MongoDB history repository
func NewHistoryRepository(logger *slog.Logger, db *mongo.Database) *HistoryRepository {
	return &HistoryRepository{
		collection: db.Collection(HistoryCollectionName),
		logger:     logger,
	}
}

// EnsureIndexes creates the unique projection key and the listing indexes
func (r *HistoryRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "transaction_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "reference", Value: 1}}},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, models); err != nil {
		r.logger.Error("Failed to create history indexes", "error", err)
		return fmt.Errorf("failed to create history indexes: %w", err)
	}
	return nil
}

// Upsert writes the entry keyed by (transaction id, user id). A pending entry
// never replaces a terminal one, so redelivered or reordered events settle on
// the final status.
func (r *HistoryRepository) Upsert(ctx context.Context, entry *history.Entry) error {
	filter := bson.M{
		"transaction_id": entry.TransactionID,
		"user_id":        entry.UserID,
	}
	if !entry.Status.IsTerminal() {
		filter["status"] = transaction.StatusPending
	}

	_, err := r.collection.ReplaceOne(ctx, filter, entry, options.Replace().SetUpsert(true))
	if err != nil {
		// The filter missed only because a terminal entry is already stored
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Debug("Skipping stale history entry",
				"reference", entry.Reference,
				"user_id", entry.UserID,
				"status", string(entry.Status))
			return nil
		}
		r.logger.Error("Failed to upsert history entry",
			"reference", entry.Reference,
			"user_id", entry.UserID,
			"error", err)
		return fmt.Errorf("failed to upsert history entry: %w", err)
	}

	return nil
}

// GetByReference returns every user's entry for one transaction.
// Returns ErrEntryNotFound when the transaction has not been projected yet.
func (r *HistoryRepository) GetByReference(ctx context.Context, reference string) ([]*history.Entry, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"reference": reference})
	if err != nil {
		r.logger.Error("Failed to get history entries", "reference", reference, "error", err)
		return nil, fmt.Errorf("failed to get history entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*history.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode history entries", "reference", reference, "error", err)
		return nil, fmt.Errorf("failed to decode history entries: %w", err)
	}

	if len(entries) == 0 {
		return nil, history.ErrEntryNotFound{Reference: reference}
	}

	return entries, nil
}

// GetByUserID retrieves paginated entries for a user, newest first
func (r *HistoryRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*history.Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		r.logger.Error("Failed to get history entries", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get history entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*history.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode history entries", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to decode history entries: %w", err)
	}

	return entries, nil
}

// CountByUserID counts the total number of history entries for a user
func (r *HistoryRepository) CountByUserID(ctx context.Context, userID string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		r.logger.Error("Failed to count history entries", "user_id", userID, "error", err)
		return 0, fmt.Errorf("failed to count history entries: %w", err)
	}

	return count, nil
}
