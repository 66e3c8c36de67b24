package jar

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyName          = errors.New("jar name cannot be empty")
	ErrInvalidPenaltyRate = errors.New("penalty rate must be between 0 and 1")
)

// MoneyJar is a savings pot funded from, and withdrawn back to, its owner's wallet.
// Withdrawing from a locked jar costs a penalty.
type MoneyJar struct {
	ID            uuid.UUID       `json:"id"`
	UserID        string          `json:"user_id"`
	Name          string          `json:"name"`
	TargetAmount  int64           `json:"target_amount"`
	CurrentAmount int64           `json:"current_amount"`
	Currency      string          `json:"currency"`
	IsLocked      bool            `json:"is_locked"`
	LockedAt      *time.Time      `json:"locked_at,omitempty"`
	MaturityDate  *time.Time      `json:"maturity_date,omitempty"`
	PenaltyRate   decimal.Decimal `json:"penalty_rate"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

func New(userID, name string, targetAmount int64, currency string, maturityDate *time.Time, penaltyRate decimal.Decimal, now time.Time) (*MoneyJar, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: jar needs an owner", shared.ErrInvalidRequest)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidRequest, ErrEmptyName)
	}
	if targetAmount < 0 {
		return nil, fmt.Errorf("%w: target amount cannot be negative", shared.ErrInvalidAmount)
	}
	if penaltyRate.IsNegative() || penaltyRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidRequest, ErrInvalidPenaltyRate)
	}

	return &MoneyJar{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         name,
		TargetAmount: targetAmount,
		Currency:     currency,
		MaturityDate: maturityDate,
		PenaltyRate:  penaltyRate,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}, nil
}

// CheckOwner rejects callers other than the jar's owner
func (j *MoneyJar) CheckOwner(callerID string) error {
	if callerID != j.UserID {
		return fmt.Errorf("%w: %s does not own jar %s", shared.ErrUnauthorized, callerID, j.ID)
	}
	return nil
}

func (j *MoneyJar) stateError(operation string) error {
	status := "unlocked"
	if j.IsLocked {
		status = "locked"
	}
	return shared.StateError{Resource: "jar", ID: j.ID.String(), Status: status, Operation: operation}
}

func (j *MoneyJar) touch(now time.Time) {
	j.UpdatedAt = now
}

// Fund adds money that has left the owner's wallet
func (j *MoneyJar) Fund(amount int64, now time.Time) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", shared.ErrInvalidAmount)
	}
	if j.IsLocked {
		return j.stateError("fund")
	}
	j.CurrentAmount += amount
	j.touch(now)
	return nil
}

// Penalty is amount * penaltyRate, truncated to the minor unit, when the jar is locked
func (j *MoneyJar) Penalty(amount int64) int64 {
	if !j.IsLocked {
		return 0
	}
	return decimal.NewFromInt(amount).Mul(j.PenaltyRate).Truncate(0).IntPart()
}

// Withdraw removes amount from the jar, penalty included
func (j *MoneyJar) Withdraw(amount int64, now time.Time) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", shared.ErrInvalidAmount)
	}
	if amount > j.CurrentAmount {
		return fmt.Errorf("%w: jar %s holds %d, requested %d", shared.ErrInsufficientFunds, j.ID, j.CurrentAmount, amount)
	}
	j.CurrentAmount -= amount
	j.touch(now)
	return nil
}

func (j *MoneyJar) Lock(now time.Time) error {
	if j.IsLocked {
		return j.stateError("lock")
	}
	j.IsLocked = true
	j.LockedAt = &now
	j.touch(now)
	return nil
}

func (j *MoneyJar) Unlock(now time.Time) error {
	if !j.IsLocked {
		return j.stateError("unlock")
	}
	j.IsLocked = false
	j.LockedAt = nil
	j.touch(now)
	return nil
}

// IsMatured reports whether the maturity date has passed
func (j *MoneyJar) IsMatured(now time.Time) bool {
	return j.MaturityDate != nil && !now.Before(*j.MaturityDate)
}

// HoldingRef names the holding account that parks the jar's savings
func (j *MoneyJar) HoldingRef() string {
	return "jar:" + j.ID.String()
}

// LockKey names the lock guarding one jar
func LockKey(id uuid.UUID) string {
	return "jar:" + id.String()
}
