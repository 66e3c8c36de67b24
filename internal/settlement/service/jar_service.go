package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/jar"
	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/domain/uow"
	"github.com/grymey-ledger/internal/domain/wallet"
	"github.com/grymey-ledger/internal/settlement/reference"
	"github.com/shopspring/decimal"
)

type CreateJarInput struct {
	UserID       string
	Name         string
	TargetAmount int64
	MaturityDate *time.Time
	PenaltyRate  *decimal.Decimal // defaults to the configured rate
}

// JarWithdrawal is the outcome of taking money out of a jar
type JarWithdrawal struct {
	Jar      *jar.MoneyJar
	Penalty  int64
	Credited int64
	// Transactions holds the penalty transaction first when one was charged
	Transactions []*transaction.Transaction
}

type JarServiceImpl struct {
	settlement
	defaultPenaltyRate decimal.Decimal
	entitlements       EntitlementChecker
}

func NewJarService(deps Dependencies, defaultPenaltyRate decimal.Decimal, entitlements EntitlementChecker) *JarServiceImpl {
	if entitlements == nil {
		entitlements = AllowEarlyUnlock{}
	}
	return &JarServiceImpl{
		settlement:         newSettlement(deps, "jar_service"),
		defaultPenaltyRate: defaultPenaltyRate,
		entitlements:       entitlements,
	}
}

func (s *JarServiceImpl) Create(ctx context.Context, input CreateJarInput) (*jar.MoneyJar, error) {
	rate := s.defaultPenaltyRate
	if input.PenaltyRate != nil {
		rate = *input.PenaltyRate
	}

	j, err := jar.New(input.UserID, input.Name, input.TargetAmount, s.currency, input.MaturityDate, rate, s.now())
	if err != nil {
		return nil, err
	}
	if err = s.read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		return repos.Jars().Create(ctx, j)
	}); err != nil {
		return nil, fmt.Errorf("failed to create jar: %w", err)
	}

	s.log(ctx).Info("Jar created", "jar_id", j.ID.String(), "user_id", j.UserID, "penalty_rate", j.PenaltyRate.String())
	return j, nil
}

// Fund moves amount from the owner's real wallet into an unlocked jar
func (s *JarServiceImpl) Fund(ctx context.Context, jarID uuid.UUID, userID string, amount int64) (*jar.MoneyJar, error) {
	var result *jar.MoneyJar
	err := s.locked(ctx, []string{jar.LockKey(jarID), wallet.LockKey(userID)}, func(ctx context.Context, repos uow.Repositories) error {
		j, err := repos.Jars().Get(ctx, jarID)
		if err != nil {
			return err
		}
		if err := j.CheckOwner(userID); err != nil {
			return err
		}
		if err := j.Fund(amount, s.now()); err != nil {
			return err
		}

		if _, err := s.engine.Transfer(ctx, repos, &transaction.TransferRequest{
			Type:     transaction.TypeJarFunding,
			Prefix:   reference.PrefixJarFunding,
			Currency: j.Currency,
			SenderID: userID,
			Metadata: map[string]any{"jar_id": j.ID.String()},
			Legs: []transaction.Leg{
				transaction.Debit(userID, wallet.ModeReal, amount),
				{Account: transaction.HoldingAccount(j.HoldingRef()), Delta: amount, Role: transaction.RoleHold},
			},
		}); err != nil {
			return err
		}

		if err := repos.Jars().Update(ctx, j); err != nil {
			return fmt.Errorf("failed to update jar %s: %w", j.ID, err)
		}
		result = j
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("Jar funded", "jar_id", jarID.String(), "amount", amount, "current", result.CurrentAmount)
	return result, nil
}

// Withdraw returns amount to the owner. From a locked jar the penalty share goes
// to the penalty sink as its own transaction and only the rest reaches the wallet.
func (s *JarServiceImpl) Withdraw(ctx context.Context, jarID uuid.UUID, userID string, amount int64) (*JarWithdrawal, error) {
	var result *JarWithdrawal
	err := s.locked(ctx, []string{jar.LockKey(jarID), wallet.LockKey(userID)}, func(ctx context.Context, repos uow.Repositories) error {
		j, err := repos.Jars().Get(ctx, jarID)
		if err != nil {
			return err
		}
		if err := j.CheckOwner(userID); err != nil {
			return err
		}

		penalty := j.Penalty(amount)
		if err := j.Withdraw(amount, s.now()); err != nil {
			return err
		}
		out := &JarWithdrawal{Jar: j, Penalty: penalty, Credited: amount - penalty}

		if penalty > 0 {
			txn, err := s.engine.Transfer(ctx, repos, &transaction.TransferRequest{
				Type:     transaction.TypePenalty,
				Prefix:   reference.PrefixPenalty,
				Currency: j.Currency,
				SenderID: userID,
				Metadata: map[string]any{"jar_id": j.ID.String(), "penalty_rate": j.PenaltyRate.String()},
				Legs: []transaction.Leg{
					{Account: transaction.HoldingAccount(j.HoldingRef()), Delta: -penalty, Role: transaction.RoleHold},
					{Account: transaction.ExternalAccount(transaction.SystemPenalty), Delta: penalty, Role: transaction.RolePenalty},
				},
			})
			if err != nil {
				return err
			}
			out.Transactions = append(out.Transactions, txn)
		}

		if out.Credited > 0 {
			txn, err := s.engine.Transfer(ctx, repos, &transaction.TransferRequest{
				Type:       transaction.TypeJarWithdrawal,
				Prefix:     reference.PrefixJarWithdrawal,
				Currency:   j.Currency,
				ReceiverID: userID,
				Metadata:   map[string]any{"jar_id": j.ID.String()},
				Legs: []transaction.Leg{
					{Account: transaction.HoldingAccount(j.HoldingRef()), Delta: -out.Credited, Role: transaction.RoleHold},
					{Account: transaction.WalletAccount(userID, wallet.ModeReal), Delta: out.Credited, Role: transaction.RoleReceiver, Create: true},
				},
			})
			if err != nil {
				return err
			}
			out.Transactions = append(out.Transactions, txn)
		}

		if err := repos.Jars().Update(ctx, j); err != nil {
			return fmt.Errorf("failed to update jar %s: %w", j.ID, err)
		}
		result = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("Jar withdrawal", "jar_id", jarID.String(), "amount", amount, "penalty", result.Penalty, "credited", result.Credited)
	return result, nil
}

func (s *JarServiceImpl) Lock(ctx context.Context, jarID uuid.UUID, userID string) (*jar.MoneyJar, error) {
	return s.toggle(ctx, jarID, userID, func(j *jar.MoneyJar) error {
		return j.Lock(s.now())
	})
}

// Unlock before maturity needs the entitlement checker's consent
func (s *JarServiceImpl) Unlock(ctx context.Context, jarID uuid.UUID, userID string) (*jar.MoneyJar, error) {
	return s.toggle(ctx, jarID, userID, func(j *jar.MoneyJar) error {
		now := s.now()
		if j.IsLocked && !j.IsMatured(now) {
			allowed, err := s.entitlements.CanUnlockEarly(ctx, userID, j.ID)
			if err != nil {
				return fmt.Errorf("failed to check unlock entitlement: %w", err)
			}
			if !allowed {
				return fmt.Errorf("%w: %s may not unlock jar %s before maturity", shared.ErrUnauthorized, userID, j.ID)
			}
		}
		return j.Unlock(now)
	})
}

func (s *JarServiceImpl) toggle(ctx context.Context, jarID uuid.UUID, userID string, fn func(j *jar.MoneyJar) error) (*jar.MoneyJar, error) {
	var result *jar.MoneyJar
	err := s.locked(ctx, []string{jar.LockKey(jarID)}, func(ctx context.Context, repos uow.Repositories) error {
		j, err := repos.Jars().Get(ctx, jarID)
		if err != nil {
			return err
		}
		if err := j.CheckOwner(userID); err != nil {
			return err
		}
		if err := fn(j); err != nil {
			return err
		}
		if err := repos.Jars().Update(ctx, j); err != nil {
			return fmt.Errorf("failed to update jar %s: %w", j.ID, err)
		}
		result = j
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("Jar lock toggled", "jar_id", jarID.String(), "locked", result.IsLocked)
	return result, nil
}

// Get returns the jar to its owner; anyone else gets NotFound
func (s *JarServiceImpl) Get(ctx context.Context, jarID uuid.UUID, userID string) (*jar.MoneyJar, error) {
	var j *jar.MoneyJar
	err := s.read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		j, err = repos.Jars().Get(ctx, jarID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if j.UserID != userID {
		return nil, jar.NotFound(jarID)
	}
	return j, nil
}

func (s *JarServiceImpl) ListForUser(ctx context.Context, userID string) ([]*jar.MoneyJar, error) {
	var jars []*jar.MoneyJar
	err := s.read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		jars, err = repos.Jars().ListByUser(ctx, userID)
		return err
	})
	return jars, err
}
