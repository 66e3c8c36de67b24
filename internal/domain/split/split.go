package split

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/shared"
)

// Status of a split payment
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusFailed, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed},
}

// CanTransitionTo reports whether s -> next is a legal move
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RecipientInput is what a creator supplies per recipient
type RecipientInput struct {
	UserID string `json:"user_id"`
	Share  Share  `json:"share"`
}

// Recipient is a resolved payee of a split
type Recipient struct {
	UserID        string     `json:"user_id"`
	Share         Share      `json:"share"`
	Amount        int64      `json:"amount"`
	IsPaid        bool       `json:"is_paid"`
	TransactionID *uuid.UUID `json:"transaction_id,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

// SplitPayment fans one payer's money out to an ordered list of recipients.
type SplitPayment struct {
	ID            uuid.UUID   `json:"id"`
	CreatorID     string      `json:"creator_id"`
	PayerID       string      `json:"payer_id,omitempty"`
	Title         string      `json:"title"`
	Description   string      `json:"description,omitempty"`
	TotalAmount   int64       `json:"total_amount"`
	Currency      string      `json:"currency"`
	Recipients    []Recipient `json:"recipients"`
	Status        Status      `json:"status"`
	FailureReason string      `json:"failure_reason,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
	Version       int         `json:"version"`
}

// New resolves recipient shares once and creates a pending split
func New(creatorID, title, description string, totalAmount int64, currency string, inputs []RecipientInput, now time.Time) (*SplitPayment, error) {
	if creatorID == "" {
		return nil, fmt.Errorf("%w: split needs a creator", shared.ErrInvalidRequest)
	}

	seen := make(map[string]bool, len(inputs))
	shares := make([]Share, len(inputs))
	for i, in := range inputs {
		if in.UserID == "" {
			return nil, fmt.Errorf("%w: recipient %d has no user", shared.ErrInvalidSplit, i)
		}
		if seen[in.UserID] {
			return nil, fmt.Errorf("%w: recipient %s listed twice", shared.ErrInvalidSplit, in.UserID)
		}
		seen[in.UserID] = true
		shares[i] = in.Share
	}

	total, amounts, err := Resolve(totalAmount, shares)
	if err != nil {
		return nil, err
	}

	recipients := make([]Recipient, len(inputs))
	for i, in := range inputs {
		recipients[i] = Recipient{UserID: in.UserID, Share: in.Share, Amount: amounts[i]}
	}

	return &SplitPayment{
		ID:          uuid.New(),
		CreatorID:   creatorID,
		Title:       title,
		Description: description,
		TotalAmount: total,
		Currency:    currency,
		Recipients:  recipients,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}, nil
}

func (s *SplitPayment) transition(next Status, operation string, now time.Time) error {
	if !s.Status.CanTransitionTo(next) {
		return shared.StateError{Resource: "split", ID: s.ID.String(), Status: string(s.Status), Operation: operation}
	}
	s.Status = next
	s.UpdatedAt = now
	return nil
}

// HasRecipient reports whether userID is one of the payees
func (s *SplitPayment) HasRecipient(userID string) bool {
	for _, r := range s.Recipients {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// IsParty reports whether userID created the split or is one of its payees
func (s *SplitPayment) IsParty(userID string) bool {
	return s.CreatorID == userID || s.HasRecipient(userID)
}

// StartProcessing binds the payer and moves the split to processing
func (s *SplitPayment) StartProcessing(payerID string, now time.Time) error {
	if s.HasRecipient(payerID) {
		return fmt.Errorf("%w: payer %s is also a recipient", shared.ErrInvalidSplit, payerID)
	}
	if err := s.transition(StatusProcessing, "process", now); err != nil {
		return err
	}
	s.PayerID = payerID
	return nil
}

// MarkPaid links recipient i to the transaction that paid it
func (s *SplitPayment) MarkPaid(i int, transactionID uuid.UUID, now time.Time) {
	s.Recipients[i].IsPaid = true
	s.Recipients[i].TransactionID = &transactionID
	s.Recipients[i].PaidAt = &now
}

// Complete requires every recipient to be paid
func (s *SplitPayment) Complete(now time.Time) error {
	for _, r := range s.Recipients {
		if !r.IsPaid {
			return shared.StateError{Resource: "split", ID: s.ID.String(), Status: string(s.Status), Operation: "complete with unpaid recipients"}
		}
	}
	if err := s.transition(StatusCompleted, "complete", now); err != nil {
		return err
	}
	s.CompletedAt = &now
	return nil
}

func (s *SplitPayment) Fail(reason string, now time.Time) error {
	if err := s.transition(StatusFailed, "fail", now); err != nil {
		return err
	}
	s.FailureReason = reason
	return nil
}

// Cancel withdraws a pending split; only its creator may do so
func (s *SplitPayment) Cancel(callerID string, now time.Time) error {
	if callerID != s.CreatorID {
		return fmt.Errorf("%w: only the creator can cancel split %s", shared.ErrUnauthorized, s.ID)
	}
	return s.transition(StatusCancelled, "cancel", now)
}

// LockKey names the lock guarding one split
func LockKey(id uuid.UUID) string {
	return "split:" + id.String()
}
