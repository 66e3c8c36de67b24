package circle

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/shared"
)

// Role of a member inside a circle
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// MemberStatus tracks invitation and suspension
type MemberStatus string

const (
	MemberPending   MemberStatus = "pending"
	MemberActive    MemberStatus = "active"
	MemberSuspended MemberStatus = "suspended"
)

var (
	ErrEmptyName      = errors.New("circle name cannot be empty")
	ErrInvalidRules   = errors.New("minimum approvals must be at least 1 when approval is required")
	ErrAlreadyMember  = errors.New("user is already a member of the circle")
	ErrBalanceDrifted = errors.New("circle balance does not match contributions and withdrawals")
)

type Member struct {
	UserID    string       `json:"user_id"`
	Role      Role         `json:"role"`
	Status    MemberStatus `json:"status"`
	InvitedBy string       `json:"invited_by,omitempty"`
	InvitedAt time.Time    `json:"invited_at"`
	JoinedAt  *time.Time   `json:"joined_at,omitempty"`
}

type Contribution struct {
	ID            uuid.UUID `json:"id"`
	UserID        string    `json:"user_id"`
	Amount        int64     `json:"amount"`
	TransactionID uuid.UUID `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// WithdrawalRules decide when money may leave the pool
type WithdrawalRules struct {
	RequiresApproval bool     `json:"requires_approval"`
	MinApprovals     int      `json:"min_approvals"`
	AllowedApprovers []string `json:"allowed_approvers,omitempty"`
}

// DefaultRules require a single approval
func DefaultRules() WithdrawalRules {
	return WithdrawalRules{RequiresApproval: true, MinApprovals: 1}
}

// Circle is a pooled account. Its balance is held on the record and only moves
// through transfer engine calls.
type Circle struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	CreatorID     string          `json:"creator_id"`
	Currency      string          `json:"currency"`
	Members       []Member        `json:"members"`
	Contributions []Contribution  `json:"contributions"`
	Withdrawals   []Withdrawal    `json:"withdrawals"`
	TotalBalance  int64           `json:"total_balance"`
	IsLocked      bool            `json:"is_locked"`
	Rules         WithdrawalRules `json:"withdrawal_rules"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

// New creates a circle whose creator is its first active admin
func New(creatorID, name, description, currency string, rules WithdrawalRules, now time.Time) (*Circle, error) {
	if creatorID == "" {
		return nil, fmt.Errorf("%w: circle needs a creator", shared.ErrInvalidRequest)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidRequest, ErrEmptyName)
	}
	if rules.RequiresApproval && rules.MinApprovals < 1 {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidRequest, ErrInvalidRules)
	}

	return &Circle{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatorID:   creatorID,
		Currency:    currency,
		Members: []Member{{
			UserID:    creatorID,
			Role:      RoleAdmin,
			Status:    MemberActive,
			InvitedAt: now,
			JoinedAt:  &now,
		}},
		Contributions: []Contribution{},
		Withdrawals:   []Withdrawal{},
		Rules:         rules,
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}, nil
}

func (c *Circle) member(userID string) *Member {
	for i := range c.Members {
		if c.Members[i].UserID == userID {
			return &c.Members[i]
		}
	}
	return nil
}

// IsActiveMember reports whether userID is an active member of any role
func (c *Circle) IsActiveMember(userID string) bool {
	m := c.member(userID)
	return m != nil && m.Status == MemberActive
}

// IsAdmin reports whether userID is an active admin
func (c *Circle) IsAdmin(userID string) bool {
	m := c.member(userID)
	return m != nil && m.Status == MemberActive && m.Role == RoleAdmin
}

// CanApprove reports whether userID may approve withdrawals
func (c *Circle) CanApprove(userID string) bool {
	if c.IsAdmin(userID) {
		return true
	}
	for _, approver := range c.Rules.AllowedApprovers {
		if approver == userID {
			return true
		}
	}
	return false
}

func (c *Circle) touch(now time.Time) {
	c.UpdatedAt = now
}

// Invite adds userID as a pending member. Only admins invite.
func (c *Circle) Invite(inviterID, userID string, role Role, now time.Time) error {
	if !c.IsAdmin(inviterID) {
		return fmt.Errorf("%w: %s is not an admin of circle %s", shared.ErrUnauthorized, inviterID, c.ID)
	}
	if c.member(userID) != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidState, ErrAlreadyMember)
	}
	if role != RoleAdmin {
		role = RoleMember
	}
	c.Members = append(c.Members, Member{
		UserID:    userID,
		Role:      role,
		Status:    MemberPending,
		InvitedBy: inviterID,
		InvitedAt: now,
	})
	c.touch(now)
	return nil
}

// Accept activates a pending invitation
func (c *Circle) Accept(userID string, now time.Time) error {
	m := c.member(userID)
	if m == nil {
		return shared.NotFoundError{Resource: "invitation", ID: userID}
	}
	if m.Status != MemberPending {
		return shared.StateError{Resource: "membership", ID: userID, Status: string(m.Status), Operation: "accept"}
	}
	m.Status = MemberActive
	m.JoinedAt = &now
	c.touch(now)
	return nil
}

// SetLocked opens or closes the circle to contributions. Only admins may toggle it.
func (c *Circle) SetLocked(adminID string, locked bool, now time.Time) error {
	if !c.IsAdmin(adminID) {
		return fmt.Errorf("%w: %s is not an admin of circle %s", shared.ErrUnauthorized, adminID, c.ID)
	}
	c.IsLocked = locked
	c.touch(now)
	return nil
}

func (c *Circle) checkMovement(userID string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", shared.ErrInvalidAmount)
	}
	if !c.IsActiveMember(userID) {
		return fmt.Errorf("%w: %s is not an active member of circle %s", shared.ErrUnauthorized, userID, c.ID)
	}
	return nil
}

// CheckContribution validates a contribution before any money moves. A locked
// circle takes no new contributions.
func (c *Circle) CheckContribution(userID string, amount int64) error {
	if err := c.checkMovement(userID, amount); err != nil {
		return err
	}
	if c.IsLocked {
		return shared.StateError{Resource: "circle", ID: c.ID.String(), Status: "locked", Operation: "contribute to"}
	}
	return nil
}

// AddContribution records money that has moved into the pool
func (c *Circle) AddContribution(userID string, amount int64, transactionID uuid.UUID, now time.Time) Contribution {
	contribution := Contribution{
		ID:            uuid.New(),
		UserID:        userID,
		Amount:        amount,
		TransactionID: transactionID,
		CreatedAt:     now,
	}
	c.Contributions = append(c.Contributions, contribution)
	c.TotalBalance += amount
	c.touch(now)
	return contribution
}

// CheckWithdrawal validates a withdrawal request against the current pool
func (c *Circle) CheckWithdrawal(userID string, amount int64) error {
	if err := c.checkMovement(userID, amount); err != nil {
		return err
	}
	if amount > c.TotalBalance {
		return fmt.Errorf("%w: circle %s holds %d, requested %d", shared.ErrInsufficientFunds, c.ID, c.TotalBalance, amount)
	}
	return nil
}

// RequestWithdrawal appends a pending withdrawal and returns it
func (c *Circle) RequestWithdrawal(userID string, amount int64, reason string, now time.Time) *Withdrawal {
	c.Withdrawals = append(c.Withdrawals, Withdrawal{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Reason:      reason,
		Status:      WithdrawalPending,
		Approvals:   []Approval{},
		RequestedAt: now,
	})
	c.touch(now)
	return &c.Withdrawals[len(c.Withdrawals)-1]
}

// Withdrawal finds a withdrawal by id
func (c *Circle) Withdrawal(id uuid.UUID) (*Withdrawal, error) {
	for i := range c.Withdrawals {
		if c.Withdrawals[i].ID == id {
			return &c.Withdrawals[i], nil
		}
	}
	return nil, shared.NotFoundError{Resource: "withdrawal", ID: id.String()}
}

// QuorumReached reports whether w has enough distinct approvals to execute
func (c *Circle) QuorumReached(w *Withdrawal) bool {
	return len(w.Approvals) >= c.Rules.MinApprovals
}

// ExecuteWithdrawal moves an approved amount out of the pool
func (c *Circle) ExecuteWithdrawal(w *Withdrawal, transactionID uuid.UUID, now time.Time) error {
	if w.Amount > c.TotalBalance {
		return fmt.Errorf("%w: circle %s holds %d, withdrawal needs %d", shared.ErrInsufficientFunds, c.ID, c.TotalBalance, w.Amount)
	}
	if err := w.transition(WithdrawalApproved, "approve", now); err != nil {
		return err
	}
	w.TransactionID = &transactionID
	c.TotalBalance -= w.Amount
	c.touch(now)
	return nil
}

// CheckInvariant verifies the pool balance against its history
func (c *Circle) CheckInvariant() error {
	var expected int64
	for _, contribution := range c.Contributions {
		expected += contribution.Amount
	}
	for _, w := range c.Withdrawals {
		if w.Status == WithdrawalApproved {
			expected -= w.Amount
		}
	}
	if expected != c.TotalBalance {
		return fmt.Errorf("%w: balance %d, expected %d", ErrBalanceDrifted, c.TotalBalance, expected)
	}
	return nil
}

// HoldingRef names the holding account that is the circle's pool
func (c *Circle) HoldingRef() string {
	return "circle:" + c.ID.String()
}

// LockKey names the lock guarding one circle
func LockKey(id uuid.UUID) string {
	return "circle:" + id.String()
}
