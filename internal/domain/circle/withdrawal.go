package circle

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/shared"
)

// WithdrawalStatus of a request to take money out of the pool
type WithdrawalStatus string

const (
	WithdrawalPending         WithdrawalStatus = "pending"
	WithdrawalPendingApproval WithdrawalStatus = "pending_approval"
	WithdrawalApproved        WithdrawalStatus = "approved"
	WithdrawalRejected        WithdrawalStatus = "rejected"
	WithdrawalCancelled       WithdrawalStatus = "cancelled"
)

var withdrawalTransitions = map[WithdrawalStatus][]WithdrawalStatus{
	WithdrawalPending:         {WithdrawalPendingApproval, WithdrawalApproved, WithdrawalRejected, WithdrawalCancelled},
	WithdrawalPendingApproval: {WithdrawalPendingApproval, WithdrawalApproved, WithdrawalRejected, WithdrawalCancelled},
}

// IsOpen reports whether the withdrawal can still gather approvals
func (s WithdrawalStatus) IsOpen() bool {
	return s == WithdrawalPending || s == WithdrawalPendingApproval
}

// CanTransitionTo reports whether s -> next is a legal move
func (s WithdrawalStatus) CanTransitionTo(next WithdrawalStatus) bool {
	for _, allowed := range withdrawalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Approval struct {
	UserID     string    `json:"user_id"`
	ApprovedAt time.Time `json:"approved_at"`
}

type Rejection struct {
	RejectedBy string    `json:"rejected_by"`
	Reason     string    `json:"reason,omitempty"`
	RejectedAt time.Time `json:"rejected_at"`
}

type Withdrawal struct {
	ID            uuid.UUID        `json:"id"`
	UserID        string           `json:"user_id"`
	Amount        int64            `json:"amount"`
	Reason        string           `json:"reason,omitempty"`
	Status        WithdrawalStatus `json:"status"`
	Approvals     []Approval       `json:"approvals"`
	Rejection     *Rejection       `json:"rejection,omitempty"`
	TransactionID *uuid.UUID       `json:"transaction_id,omitempty"`
	RequestedAt   time.Time        `json:"requested_at"`
	ProcessedAt   *time.Time       `json:"processed_at,omitempty"`
}

func (w *Withdrawal) transition(next WithdrawalStatus, operation string, now time.Time) error {
	if !w.Status.CanTransitionTo(next) {
		return shared.StateError{Resource: "withdrawal", ID: w.ID.String(), Status: string(w.Status), Operation: operation}
	}
	w.Status = next
	if !next.IsOpen() {
		w.ProcessedAt = &now
	}
	return nil
}

// HasApproved reports whether userID already approved
func (w *Withdrawal) HasApproved(userID string) bool {
	for _, a := range w.Approvals {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

// Approve records one approver. The same approver cannot approve twice.
func (w *Withdrawal) Approve(approverID string, now time.Time) error {
	if !w.Status.IsOpen() {
		return shared.StateError{Resource: "withdrawal", ID: w.ID.String(), Status: string(w.Status), Operation: "approve"}
	}
	if w.HasApproved(approverID) {
		return fmt.Errorf("%w: %s already approved withdrawal %s", shared.ErrDuplicateApproval, approverID, w.ID)
	}
	w.Approvals = append(w.Approvals, Approval{UserID: approverID, ApprovedAt: now})
	return nil
}

// AwaitMoreApprovals marks a withdrawal that has approvals but no quorum yet
func (w *Withdrawal) AwaitMoreApprovals(now time.Time) error {
	return w.transition(WithdrawalPendingApproval, "approve", now)
}

// Reject closes the withdrawal without moving money. Approved withdrawals are final.
func (w *Withdrawal) Reject(rejectedBy, reason string, now time.Time) error {
	if err := w.transition(WithdrawalRejected, "reject", now); err != nil {
		return err
	}
	w.Rejection = &Rejection{RejectedBy: rejectedBy, Reason: reason, RejectedAt: now}
	return nil
}

// Cancel lets the requester drop an open withdrawal
func (w *Withdrawal) Cancel(callerID string, now time.Time) error {
	if callerID != w.UserID {
		return fmt.Errorf("%w: only the requester can cancel withdrawal %s", shared.ErrUnauthorized, w.ID)
	}
	return w.transition(WithdrawalCancelled, "cancel", now)
}
