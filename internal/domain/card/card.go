package card

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/shared"
)

// Status of a virtual card
type Status string

const (
	StatusActive Status = "active"
	StatusFrozen Status = "frozen"
)

// VirtualCard carries a prepaid balance funded from its owner's wallet.
type VirtualCard struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Balance   int64     `json:"balance"`
	Currency  string    `json:"currency"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

func New(userID, currency string, now time.Time) (*VirtualCard, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: card needs an owner", shared.ErrInvalidRequest)
	}
	return &VirtualCard{
		ID:        uuid.New(),
		UserID:    userID,
		Currency:  currency,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}, nil
}

func (c *VirtualCard) CheckOwner(callerID string) error {
	if callerID != c.UserID {
		return fmt.Errorf("%w: %s does not own card %s", shared.ErrUnauthorized, callerID, c.ID)
	}
	return nil
}

// CheckFundable rejects funding a frozen card before any money moves
func (c *VirtualCard) CheckFundable(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", shared.ErrInvalidAmount)
	}
	if c.Status != StatusActive {
		return shared.StateError{Resource: "card", ID: c.ID.String(), Status: string(c.Status), Operation: "fund"}
	}
	return nil
}

func (c *VirtualCard) Fund(amount int64, now time.Time) error {
	if err := c.CheckFundable(amount); err != nil {
		return err
	}
	c.Balance += amount
	c.UpdatedAt = now
	return nil
}

func (c *VirtualCard) Freeze(now time.Time) error {
	if c.Status == StatusFrozen {
		return shared.StateError{Resource: "card", ID: c.ID.String(), Status: string(c.Status), Operation: "freeze"}
	}
	c.Status = StatusFrozen
	c.UpdatedAt = now
	return nil
}

func (c *VirtualCard) HoldingRef() string {
	return "card:" + c.ID.String()
}

// LockKey names the lock guarding one card
func LockKey(id uuid.UUID) string {
	return "card:" + id.String()
}
