package escrow

import (
	"context"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/shared"
)

// Repository defines escrow persistence operations
type Repository interface {
	Create(ctx context.Context, escrow *Escrow) error
	Get(ctx context.Context, id uuid.UUID) (*Escrow, error)
	Update(ctx context.Context, escrow *Escrow) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Escrow, error)
}

// NotFound builds the error returned for a missing escrow
func NotFound(id uuid.UUID) error {
	return shared.NotFoundError{Resource: "escrow", ID: id.String()}
}
