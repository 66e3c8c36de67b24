package jar

import (
	"context"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/shared"
)

// Repository defines money jar persistence operations
type Repository interface {
	Create(ctx context.Context, jar *MoneyJar) error
	Get(ctx context.Context, id uuid.UUID) (*MoneyJar, error)
	Update(ctx context.Context, jar *MoneyJar) error
	ListByUser(ctx context.Context, userID string) ([]*MoneyJar, error)
}

// NotFound builds the error returned for a missing jar
func NotFound(id uuid.UUID) error {
	return shared.NotFoundError{Resource: "jar", ID: id.String()}
}
