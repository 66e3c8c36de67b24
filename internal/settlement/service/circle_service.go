package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/circle"
	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/domain/uow"
	"github.com/grymey-ledger/internal/domain/wallet"
	"github.com/grymey-ledger/internal/settlement/reference"
)

// WithdrawalResult reports where a withdrawal stands after a request or approval
type WithdrawalResult struct {
	Circle           *circle.Circle
	Withdrawal       circle.Withdrawal
	RequiresApproval bool
	Approvals        int
}

type CircleServiceImpl struct {
	settlement
}

func NewCircleService(deps Dependencies) *CircleServiceImpl {
	return &CircleServiceImpl{settlement: newSettlement(deps, "circle_service")}
}

// Create makes creatorID the circle's first active admin. Nil rules mean the defaults.
func (s *CircleServiceImpl) Create(ctx context.Context, creatorID, name, description string, rules *circle.WithdrawalRules) (*circle.Circle, error) {
	r := circle.DefaultRules()
	if rules != nil {
		r = *rules
	}

	c, err := circle.New(creatorID, name, description, s.currency, r, s.now())
	if err != nil {
		return nil, err
	}
	if err = s.read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		return repos.Circles().Create(ctx, c)
	}); err != nil {
		return nil, fmt.Errorf("failed to create circle: %w", err)
	}

	s.log(ctx).Info("Circle created", "circle_id", c.ID.String(), "creator_id", creatorID)
	return c, nil
}

func (s *CircleServiceImpl) Invite(ctx context.Context, circleID uuid.UUID, inviterID, userID string, role circle.Role) (*circle.Circle, error) {
	return s.mutate(ctx, circleID, func(c *circle.Circle) error {
		return c.Invite(inviterID, userID, role, s.now())
	})
}

func (s *CircleServiceImpl) AcceptInvitation(ctx context.Context, circleID uuid.UUID, userID string) (*circle.Circle, error) {
	return s.mutate(ctx, circleID, func(c *circle.Circle) error {
		return c.Accept(userID, s.now())
	})
}

func (s *CircleServiceImpl) SetLocked(ctx context.Context, circleID uuid.UUID, adminID string, locked bool) (*circle.Circle, error) {
	return s.mutate(ctx, circleID, func(c *circle.Circle) error {
		return c.SetLocked(adminID, locked, s.now())
	})
}

// Contribute moves amount from the member's real wallet into the pool
func (s *CircleServiceImpl) Contribute(ctx context.Context, circleID uuid.UUID, userID string, amount int64) (*circle.Circle, error) {
	var result *circle.Circle
	keys := []string{circle.LockKey(circleID), wallet.LockKey(userID)}
	err := s.locked(ctx, keys, func(ctx context.Context, repos uow.Repositories) error {
		c, err := repos.Circles().Get(ctx, circleID)
		if err != nil {
			return err
		}
		if err := c.CheckContribution(userID, amount); err != nil {
			return err
		}

		txn, err := s.engine.Transfer(ctx, repos, &transaction.TransferRequest{
			Type:     transaction.TypeCircleContribution,
			Prefix:   reference.PrefixCircleContribution,
			Currency: c.Currency,
			SenderID: userID,
			Metadata: map[string]any{"circle_id": c.ID.String()},
			Legs: []transaction.Leg{
				transaction.Debit(userID, wallet.ModeReal, amount),
				{Account: transaction.HoldingAccount(c.HoldingRef()), Delta: amount, Role: transaction.RoleHold},
			},
		})
		if err != nil {
			return err
		}

		c.AddContribution(userID, amount, txn.ID, s.now())
		if err := repos.Circles().Update(ctx, c); err != nil {
			return fmt.Errorf("failed to update circle %s: %w", c.ID, err)
		}
		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("Circle contribution", "circle_id", circleID.String(), "user_id", userID, "amount", amount, "pool", result.TotalBalance)
	return result, nil
}

// Withdraw requests amount from the pool. Without an approval rule it executes
// immediately; otherwise the request waits for approvals and no money moves.
func (s *CircleServiceImpl) Withdraw(ctx context.Context, circleID uuid.UUID, userID string, amount int64, reason string) (*WithdrawalResult, error) {
	var result *WithdrawalResult
	keys := []string{circle.LockKey(circleID), wallet.LockKey(userID)}
	err := s.locked(ctx, keys, func(ctx context.Context, repos uow.Repositories) error {
		c, err := repos.Circles().Get(ctx, circleID)
		if err != nil {
			return err
		}
		if err := c.CheckWithdrawal(userID, amount); err != nil {
			return err
		}

		w := c.RequestWithdrawal(userID, amount, reason, s.now())
		if !c.Rules.RequiresApproval {
			if err := s.execute(ctx, repos, c, w); err != nil {
				return err
			}
		}

		if err := repos.Circles().Update(ctx, c); err != nil {
			return fmt.Errorf("failed to update circle %s: %w", c.ID, err)
		}
		result = &WithdrawalResult{Circle: c, Withdrawal: *w, RequiresApproval: c.Rules.RequiresApproval}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("Circle withdrawal requested", "circle_id", circleID.String(), "withdrawal_id", result.Withdrawal.ID.String(), "status", result.Withdrawal.Status)
	return result, nil
}

// ApproveWithdrawal adds one distinct approval and executes the withdrawal once
// the quorum is reached
func (s *CircleServiceImpl) ApproveWithdrawal(ctx context.Context, circleID, withdrawalID uuid.UUID, approverID string) (*WithdrawalResult, error) {
	ctx, release, err := s.locks.Acquire(ctx, circle.LockKey(circleID))
	if err != nil {
		return nil, err
	}
	defer release()

	// the requester's wallet is only known after reading the circle
	var requesterID string
	if err = s.read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		c, err := repos.Circles().Get(ctx, circleID)
		if err != nil {
			return err
		}
		w, err := c.Withdrawal(withdrawalID)
		if err != nil {
			return err
		}
		requesterID = w.UserID
		return nil
	}); err != nil {
		return nil, err
	}

	var result *WithdrawalResult
	err = s.locked(ctx, []string{wallet.LockKey(requesterID)}, func(ctx context.Context, repos uow.Repositories) error {
		c, err := repos.Circles().Get(ctx, circleID)
		if err != nil {
			return err
		}
		if !c.CanApprove(approverID) {
			return fmt.Errorf("%w: %s cannot approve withdrawals of circle %s", shared.ErrUnauthorized, approverID, c.ID)
		}
		w, err := c.Withdrawal(withdrawalID)
		if err != nil {
			return err
		}

		now := s.now()
		if err := w.Approve(approverID, now); err != nil {
			return err
		}
		if c.QuorumReached(w) {
			if err := s.execute(ctx, repos, c, w); err != nil {
				return err
			}
		} else if err := w.AwaitMoreApprovals(now); err != nil {
			return err
		}

		if err := repos.Circles().Update(ctx, c); err != nil {
			return fmt.Errorf("failed to update circle %s: %w", c.ID, err)
		}
		result = &WithdrawalResult{Circle: c, Withdrawal: *w, RequiresApproval: true, Approvals: len(w.Approvals)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("Circle withdrawal approved", "circle_id", circleID.String(), "withdrawal_id", withdrawalID.String(), "by", approverID, "approvals", result.Approvals, "status", result.Withdrawal.Status)
	return result, nil
}

// execute pays an approved withdrawal out of the pool to the requester
func (s *CircleServiceImpl) execute(ctx context.Context, repos uow.Repositories, c *circle.Circle, w *circle.Withdrawal) error {
	if w.Amount > c.TotalBalance {
		return fmt.Errorf("%w: circle %s holds %d, withdrawal needs %d", shared.ErrInsufficientFunds, c.ID, c.TotalBalance, w.Amount)
	}

	txn, err := s.engine.Transfer(ctx, repos, &transaction.TransferRequest{
		Type:       transaction.TypeCircleWithdrawal,
		Prefix:     reference.PrefixCircleWithdrawal,
		Currency:   c.Currency,
		ReceiverID: w.UserID,
		Metadata:   map[string]any{"circle_id": c.ID.String(), "withdrawal_id": w.ID.String()},
		Legs: []transaction.Leg{
			{Account: transaction.HoldingAccount(c.HoldingRef()), Delta: -w.Amount, Role: transaction.RoleHold},
			{Account: transaction.WalletAccount(w.UserID, wallet.ModeReal), Delta: w.Amount, Role: transaction.RoleReceiver, Create: true},
		},
	})
	if err != nil {
		return err
	}
	return c.ExecuteWithdrawal(w, txn.ID, s.now())
}

// RejectWithdrawal closes an open withdrawal. Approved withdrawals cannot be rejected.
func (s *CircleServiceImpl) RejectWithdrawal(ctx context.Context, circleID, withdrawalID uuid.UUID, rejecterID, reason string) (*circle.Circle, error) {
	return s.mutate(ctx, circleID, func(c *circle.Circle) error {
		if !c.CanApprove(rejecterID) {
			return fmt.Errorf("%w: %s cannot reject withdrawals of circle %s", shared.ErrUnauthorized, rejecterID, c.ID)
		}
		w, err := c.Withdrawal(withdrawalID)
		if err != nil {
			return err
		}
		return w.Reject(rejecterID, reason, s.now())
	})
}

// CancelWithdrawal lets the requester drop a withdrawal that is still open
func (s *CircleServiceImpl) CancelWithdrawal(ctx context.Context, circleID, withdrawalID uuid.UUID, callerID string) (*circle.Circle, error) {
	return s.mutate(ctx, circleID, func(c *circle.Circle) error {
		w, err := c.Withdrawal(withdrawalID)
		if err != nil {
			return err
		}
		return w.Cancel(callerID, s.now())
	})
}

// mutate applies a change that moves no money under the circle's lock
func (s *CircleServiceImpl) mutate(ctx context.Context, circleID uuid.UUID, fn func(c *circle.Circle) error) (*circle.Circle, error) {
	var result *circle.Circle
	err := s.locked(ctx, []string{circle.LockKey(circleID)}, func(ctx context.Context, repos uow.Repositories) error {
		c, err := repos.Circles().Get(ctx, circleID)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		if err := repos.Circles().Update(ctx, c); err != nil {
			return fmt.Errorf("failed to update circle %s: %w", c.ID, err)
		}
		result = c
		return nil
	})
	return result, err
}

// Get returns the circle to its members; everyone else gets NotFound
func (s *CircleServiceImpl) Get(ctx context.Context, circleID uuid.UUID, callerID string) (*circle.Circle, error) {
	var c *circle.Circle
	err := s.read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		c, err = repos.Circles().Get(ctx, circleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, m := range c.Members {
		if m.UserID == callerID {
			return c, nil
		}
	}
	return nil, circle.NotFound(circleID)
}

func (s *CircleServiceImpl) ListForMember(ctx context.Context, userID string) ([]*circle.Circle, error) {
	var circles []*circle.Circle
	err := s.read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		circles, err = repos.Circles().ListByMember(ctx, userID)
		return err
	})
	return circles, err
}
