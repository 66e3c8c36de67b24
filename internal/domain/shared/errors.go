package shared

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by every settlement operation. Callers match on these with errors.Is.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidState      = errors.New("invalid state")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidSplit      = errors.New("invalid split")
	ErrLockUnavailable   = errors.New("lock unavailable")
	ErrDuplicateApproval = errors.New("duplicate approval")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidCurrency   = errors.New("invalid currency")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrLockNotHeld       = errors.New("lock not held")
	ErrConcurrentUpdate  = errors.New("record was modified concurrently")
)

// NotFoundError reports a missing record of a given kind.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// Is matches ErrNotFound, or another NotFoundError for the same resource.
// An empty ID on the target matches any ID.
func (e NotFoundError) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}
	t, ok := target.(NotFoundError)
	if !ok {
		return false
	}
	return t.Resource == e.Resource && (t.ID == "" || t.ID == e.ID)
}

// StateError reports an operation attempted against a record in the wrong status.
type StateError struct {
	Resource  string
	ID        string
	Status    string
	Operation string
}

func (e StateError) Error() string {
	return fmt.Sprintf("cannot %s %s %s in status %s", e.Operation, e.Resource, e.ID, e.Status)
}

func (e StateError) Is(target error) bool {
	return target == ErrInvalidState
}
