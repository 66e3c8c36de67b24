package escrow

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/shared"
)

// Status of an escrow. Pending is the only non-terminal status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusDisputed  Status = "disputed"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

// DisputeStatus tracks external arbitration of a disputed escrow
type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "open"
	DisputeResolved DisputeStatus = "resolved"
	DisputeRejected DisputeStatus = "rejected"
)

var (
	ErrSameParty       = errors.New("escrow sender and receiver must differ")
	ErrEmptyReason     = errors.New("dispute reason cannot be empty")
	ErrInvalidDuration = errors.New("escrow expiry must be in the future")
)

// Dispute is recorded when a party contests a pending escrow
type Dispute struct {
	RaisedBy string        `json:"raised_by"`
	Reason   string        `json:"reason"`
	Status   DisputeStatus `json:"status"`
	RaisedAt time.Time     `json:"raised_at"`
}

// Escrow holds funds debited from the sender until they are released to the receiver.
type Escrow struct {
	ID            uuid.UUID  `json:"id"`
	SenderID      string     `json:"sender_id"`
	ReceiverID    string     `json:"receiver_id"`
	Amount        int64      `json:"amount"`
	Currency      string     `json:"currency"`
	Description   string     `json:"description"`
	Conditions    []string   `json:"conditions,omitempty"`
	Status        Status     `json:"status"`
	Dispute       *Dispute   `json:"dispute,omitempty"`
	TransactionID uuid.UUID  `json:"transaction_id"`
	ExpiresAt     time.Time  `json:"expires_at"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Version       int        `json:"version"`
}

// New creates a pending escrow. The hold transaction is linked by the caller.
func New(senderID, receiverID string, amount int64, currency, description string, conditions []string, expiresAt, now time.Time) (*Escrow, error) {
	if senderID == "" || receiverID == "" {
		return nil, fmt.Errorf("%w: escrow needs a sender and a receiver", shared.ErrInvalidRequest)
	}
	if senderID == receiverID {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidRequest, ErrSameParty)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: escrow amount must be positive", shared.ErrInvalidAmount)
	}
	if !expiresAt.After(now) {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidRequest, ErrInvalidDuration)
	}

	return &Escrow{
		ID:          uuid.New(),
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Amount:      amount,
		Currency:    currency,
		Description: description,
		Conditions:  conditions,
		Status:      StatusPending,
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}, nil
}

// IsParty reports whether userID is the sender or the receiver
func (e *Escrow) IsParty(userID string) bool {
	return userID == e.SenderID || userID == e.ReceiverID
}

// IsExpired reports whether the escrow passed its expiry while still pending
func (e *Escrow) IsExpired(now time.Time) bool {
	return e.Status == StatusPending && now.After(e.ExpiresAt)
}

func (e *Escrow) guard(callerID, operation string) error {
	if !e.IsParty(callerID) {
		return fmt.Errorf("%w: %s is not a party to escrow %s", shared.ErrUnauthorized, callerID, e.ID)
	}
	if e.Status != StatusPending {
		return shared.StateError{Resource: "escrow", ID: e.ID.String(), Status: string(e.Status), Operation: operation}
	}
	return nil
}

func (e *Escrow) close(status Status, now time.Time) {
	e.Status = status
	e.ClosedAt = &now
	e.UpdatedAt = now
}

// Release hands the held funds to the receiver
func (e *Escrow) Release(callerID string, now time.Time) error {
	if err := e.guard(callerID, "release"); err != nil {
		return err
	}
	// past expiry the hold can only be refunded
	if e.IsExpired(now) {
		return shared.StateError{Resource: "escrow", ID: e.ID.String(), Status: "expired", Operation: "release"}
	}
	e.close(StatusCompleted, now)
	return nil
}

// RaiseDispute freezes the escrow pending external arbitration. No money moves.
func (e *Escrow) RaiseDispute(callerID, reason string, now time.Time) error {
	if err := e.guard(callerID, "dispute"); err != nil {
		return err
	}
	if reason == "" {
		return fmt.Errorf("%w: %w", shared.ErrInvalidRequest, ErrEmptyReason)
	}
	e.Dispute = &Dispute{RaisedBy: callerID, Reason: reason, Status: DisputeOpen, RaisedAt: now}
	e.Status = StatusDisputed
	e.UpdatedAt = now
	return nil
}

// Cancel returns the held funds to the sender. The sender withdrawing the offer
// cancels the escrow; the receiver declining it refunds the escrow.
func (e *Escrow) Cancel(callerID string, now time.Time) error {
	if err := e.guard(callerID, "cancel"); err != nil {
		return err
	}
	if callerID == e.SenderID {
		e.close(StatusCancelled, now)
	} else {
		e.close(StatusRefunded, now)
	}
	return nil
}

// HoldingRef names the holding account that parks the escrowed funds
func (e *Escrow) HoldingRef() string {
	return "escrow:" + e.ID.String()
}

// LockKey names the lock guarding one escrow
func LockKey(id uuid.UUID) string {
	return "escrow:" + id.String()
}
