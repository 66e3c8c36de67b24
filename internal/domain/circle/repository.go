package circle

import (
	"context"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/shared"
)

// Repository defines circle persistence operations
type Repository interface {
	Create(ctx context.Context, circle *Circle) error
	Get(ctx context.Context, id uuid.UUID) (*Circle, error)
	Update(ctx context.Context, circle *Circle) error
	ListByMember(ctx context.Context, userID string) ([]*Circle, error)
}

// NotFound builds the error returned for a missing circle
func NotFound(id uuid.UUID) error {
	return shared.NotFoundError{Resource: "circle", ID: id.String()}
}
