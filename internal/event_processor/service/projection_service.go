package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/grymey-ledger/internal/domain/history"
	"github.com/grymey-ledger/internal/domain/transaction"
)

// HistoryProjectionService writes one history entry per user an event touched
type HistoryProjectionService struct {
	historyRepo history.Repository
	logger      *slog.Logger
	now         func() time.Time
}

func NewProjectionService(historyRepo history.Repository, logger *slog.Logger) *HistoryProjectionService {
	return &HistoryProjectionService{
		historyRepo: historyRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// Project is safe to repeat; entries are upserted on (transaction id, user id)
func (s *HistoryProjectionService) Project(ctx context.Context, event *transaction.Event) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	entries := history.FromEvent(event, s.now().UTC())
	if len(entries) == 0 {
		logger.Warn("Transaction event touched no user, nothing to project",
			"transaction_id", event.TransactionID.String(),
			"reference", event.Reference,
		)
		return nil
	}

	for _, entry := range entries {
		if err := s.historyRepo.Upsert(ctx, entry); err != nil {
			logger.Error("Failed to upsert history entry",
				"transaction_id", event.TransactionID.String(),
				"user_id", entry.UserID,
				"error", err,
			)
			return fmt.Errorf("failed to project %s for %s: %w", event.Reference, entry.UserID, err)
		}
	}

	logger.Info("Projected transaction event",
		"transaction_id", event.TransactionID.String(),
		"reference", event.Reference,
		"status", event.Status,
		"entries", len(entries),
	)
	return nil
}
