package card

import (
	"context"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/shared"
)

// Repository defines virtual card persistence operations
type Repository interface {
	Create(ctx context.Context, card *VirtualCard) error
	Get(ctx context.Context, id uuid.UUID) (*VirtualCard, error)
	Update(ctx context.Context, card *VirtualCard) error
	ListByUser(ctx context.Context, userID string) ([]*VirtualCard, error)
}

// NotFound builds the error returned for a missing card
func NotFound(id uuid.UUID) error {
	return shared.NotFoundError{Resource: "card", ID: id.String()}
}
