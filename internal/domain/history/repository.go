package history

import (
	"context"
)

// Repository manages the projected transaction history with pagination support
type Repository interface {
	// Upsert is idempotent on (transaction id, user id); a later status replaces an earlier one
	Upsert(ctx context.Context, entry *Entry) error
	GetByReference(ctx context.Context, reference string) ([]*Entry, error)
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*Entry, error)
	CountByUserID(ctx context.Context, userID string) (int64, error)
}

// ErrEntryNotFound indicates missing history for a transaction
type ErrEntryNotFound struct {
	Reference string
}

func (e ErrEntryNotFound) Error() string {
	return "history entry not found: " + e.Reference
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	// An empty target reference matches any ErrEntryNotFound
	if t.Reference == "" {
		return true
	}
	return e.Reference == t.Reference
}
