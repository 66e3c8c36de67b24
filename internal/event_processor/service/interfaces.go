package service

import (
	"context"

	"github.com/grymey-ledger/internal/domain/transaction"
)

// ProjectionService folds a published transaction event into the history read model.
type ProjectionService interface {
	Project(ctx context.Context, event *transaction.Event) error
}
