package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/shared"
)

// Type enumerates the money-movement events the ledger records
type Type string

const (
	TypeTransfer           Type = "transfer"
	TypeDeposit            Type = "deposit"
	TypeWithdrawal         Type = "withdrawal"
	TypeBillPayment        Type = "bill_payment"
	TypeEscrow             Type = "escrow"
	TypeSplitPayment       Type = "split_payment"
	TypeJarFunding         Type = "jar_funding"
	TypeJarWithdrawal      Type = "jar_withdrawal"
	TypePenalty            Type = "penalty"
	TypeCircleContribution Type = "circle_contribution"
	TypeCircleWithdrawal   Type = "circle_withdrawal"
	TypeCardFunding        Type = "card_funding"
)

// Status defines transaction processing states
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusReversed  Status = "reversed"
)

// IsTerminal reports whether no further transition is allowed
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusReversed
}

// CanTransitionTo reports whether s -> next is a legal move
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && next.IsTerminal()
}

// Transaction is the durable record of one money-movement event.
type Transaction struct {
	ID            uuid.UUID      `json:"id"`
	Reference     string         `json:"reference"`
	SenderID      string         `json:"sender_id,omitempty"`
	ReceiverID    string         `json:"receiver_id,omitempty"`
	Amount        int64          `json:"amount"` // Stored in minor units
	Currency      string         `json:"currency"`
	Type          Type           `json:"type"`
	Status        Status         `json:"status"`
	Ghost         bool           `json:"ghost"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	FailureReason string         `json:"failure_reason,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
}

// New creates a pending transaction
func New(reference string, typ Type, amount int64, currency string, at time.Time) *Transaction {
	return &Transaction{
		ID:        uuid.New(),
		Reference: reference,
		Amount:    amount,
		Currency:  currency,
		Type:      typ,
		Status:    StatusPending,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func (t *Transaction) transition(next Status, operation string, at time.Time) error {
	if !t.Status.CanTransitionTo(next) {
		return shared.StateError{Resource: "transaction", ID: t.Reference, Status: string(t.Status), Operation: operation}
	}
	t.Status = next
	t.UpdatedAt = at
	return nil
}

// Complete marks every implied ledger mutation as applied
func (t *Transaction) Complete(at time.Time) error {
	if err := t.transition(StatusCompleted, "complete", at); err != nil {
		return err
	}
	t.CompletedAt = &at
	return nil
}

// Fail records a business failure caught before any mutation
func (t *Transaction) Fail(reason string, at time.Time) error {
	if err := t.transition(StatusFailed, "fail", at); err != nil {
		return err
	}
	t.FailureReason = reason
	return nil
}

// Reverse closes a held transaction whose funds went back to the sender
func (t *Transaction) Reverse(at time.Time) error {
	if err := t.transition(StatusReversed, "reverse", at); err != nil {
		return err
	}
	t.CompletedAt = &at
	return nil
}
