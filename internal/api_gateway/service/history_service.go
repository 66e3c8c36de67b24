package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/grymey-ledger/internal/domain/history"
	"github.com/grymey-ledger/internal/domain/shared"
)

// HistoryServiceImpl implements HistoryService over the projected read model
type HistoryServiceImpl struct {
	historyRepo history.Repository
	logger      *slog.Logger
}

func NewHistoryService(logger *slog.Logger, historyRepo history.Repository) *HistoryServiceImpl {
	return &HistoryServiceImpl{
		historyRepo: historyRepo,
		logger:      logger,
	}
}

// GetEntry hides entries of other users behind the same not-found error
func (s *HistoryServiceImpl) GetEntry(ctx context.Context, reference, callerID string) (*history.Entry, error) {
	notFound := shared.NotFoundError{Resource: "transaction", ID: reference}

	entries, err := s.historyRepo.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, history.ErrEntryNotFound{}) {
			return nil, notFound
		}
		s.logger.Error("Failed to get history by reference", "reference", reference, "error", err)
		return nil, fmt.Errorf("failed to get history for %s: %w", reference, err)
	}

	for _, entry := range entries {
		if entry.UserID == callerID {
			return entry, nil
		}
	}
	return nil, notFound
}

func (s *HistoryServiceImpl) ListForUser(ctx context.Context, userID string, page, perPage int) ([]*history.Entry, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.historyRepo.GetByUserID(ctx, userID, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list history for %s: %w", userID, err)
	}

	total, err := s.historyRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count history for %s: %w", userID, err)
	}

	return entries, total, nil
}
