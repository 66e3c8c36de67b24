package split

import (
	"context"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/shared"
)

// Repository defines split payment persistence operations
type Repository interface {
	Create(ctx context.Context, split *SplitPayment) error
	Get(ctx context.Context, id uuid.UUID) (*SplitPayment, error)
	Update(ctx context.Context, split *SplitPayment) error
	// ListByUser returns splits userID created or is paid by, newest first
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*SplitPayment, error)
}

// NotFound builds the error returned for a missing split
func NotFound(id uuid.UUID) error {
	return shared.NotFoundError{Resource: "split", ID: id.String()}
}
