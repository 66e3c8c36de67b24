package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/grymey-ledger/internal/domain/split"
	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/domain/uow"
	"github.com/grymey-ledger/internal/domain/wallet"
	"github.com/grymey-ledger/internal/settlement/reference"
)

// CreateSplitInput describes a new split. TotalAmount may be zero for amount shares.
type CreateSplitInput struct {
	CreatorID   string
	Title       string
	Description string
	TotalAmount int64
	Recipients  []split.RecipientInput
}

type SplitServiceImpl struct {
	settlement
	ledger LedgerStore
}

func NewSplitService(deps Dependencies, ledger LedgerStore) *SplitServiceImpl {
	return &SplitServiceImpl{
		settlement: newSettlement(deps, "split_service"),
		ledger:     ledger,
	}
}

// Create resolves every recipient's amount once and stores a pending split
func (s *SplitServiceImpl) Create(ctx context.Context, input CreateSplitInput) (*split.SplitPayment, error) {
	sp, err := split.New(input.CreatorID, input.Title, input.Description, input.TotalAmount, s.currency, input.Recipients, s.now())
	if err != nil {
		return nil, err
	}

	err = s.read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		return repos.Splits().Create(ctx, sp)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create split: %w", err)
	}

	s.log(ctx).Info("Split created", "split_id", sp.ID.String(), "creator_id", sp.CreatorID, "total", sp.TotalAmount, "recipients", len(sp.Recipients))
	return sp, nil
}

// Process pays every recipient from payerID's real wallet in one unit of work.
// Insufficient funds and lock contention leave the split pending for a retry;
// a failure during the payouts marks it failed.
func (s *SplitServiceImpl) Process(ctx context.Context, splitID uuid.UUID, payerID string) (*split.SplitPayment, error) {
	log := s.log(ctx)

	ctx, release, err := s.locks.Acquire(ctx, split.LockKey(splitID))
	if err != nil {
		return nil, err
	}
	defer release()

	var sp *split.SplitPayment
	if err = s.read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		sp, err = repos.Splits().Get(ctx, splitID)
		return err
	}); err != nil {
		return nil, err
	}

	keys := []string{wallet.LockKey(payerID)}
	for _, r := range sp.Recipients {
		keys = append(keys, wallet.LockKey(r.UserID))
	}

	payingOut := false
	err = s.locked(ctx, keys, func(ctx context.Context, repos uow.Repositories) error {
		current, err := repos.Splits().Get(ctx, splitID)
		if err != nil {
			return err
		}

		if err := current.StartProcessing(payerID, s.now()); err != nil {
			return err
		}
		balance, err := s.ledger.GetBalance(ctx, repos, payerID, wallet.ModeReal)
		if err != nil {
			return err
		}
		if balance < current.TotalAmount {
			return fmt.Errorf("%w: payer %s has %d, split needs %d", shared.ErrInsufficientFunds, payerID, balance, current.TotalAmount)
		}

		payingOut = true
		for i, r := range current.Recipients {
			txn, err := s.engine.Transfer(ctx, repos, &transaction.TransferRequest{
				Type:       transaction.TypeSplitPayment,
				Prefix:     reference.PrefixSplit,
				Currency:   current.Currency,
				SenderID:   payerID,
				ReceiverID: r.UserID,
				Metadata:   map[string]any{"split_id": current.ID.String(), "title": current.Title},
				Legs: []transaction.Leg{
					transaction.Debit(payerID, wallet.ModeReal, r.Amount),
					{Account: transaction.WalletAccount(r.UserID, wallet.ModeReal), Delta: r.Amount, Role: transaction.RoleReceiver, Create: true},
				},
			})
			if err != nil {
				return fmt.Errorf("payout to %s: %w", r.UserID, err)
			}
			current.MarkPaid(i, txn.ID, s.now())
		}

		if err := current.Complete(s.now()); err != nil {
			return err
		}
		if err := repos.Splits().Update(ctx, current); err != nil {
			return fmt.Errorf("failed to update split %s: %w", current.ID, err)
		}
		sp = current
		return nil
	})
	if err == nil {
		log.Info("Split completed", "split_id", splitID.String(), "payer_id", payerID, "total", sp.TotalAmount)
		return sp, nil
	}

	if payingOut && !errors.Is(err, shared.ErrInsufficientFunds) && !errors.Is(err, shared.ErrLockUnavailable) {
		log.Warn("Split payout failed, marking split failed", "split_id", splitID.String(), "error", err)
		if failErr := s.markFailed(ctx, splitID, err.Error()); failErr != nil {
			log.Error("Failed to mark split failed", "split_id", splitID.String(), "error", failErr)
		}
	} else {
		log.Warn("Split not processed", "split_id", splitID.String(), "payer_id", payerID, "error", err)
	}
	return nil, err
}

func (s *SplitServiceImpl) markFailed(ctx context.Context, splitID uuid.UUID, reason string) error {
	return s.read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		sp, err := repos.Splits().Get(ctx, splitID)
		if err != nil {
			return err
		}
		if err := sp.Fail(reason, s.now()); err != nil {
			return err
		}
		return repos.Splits().Update(ctx, sp)
	})
}

// Cancel withdraws a pending split. Only the creator may cancel.
func (s *SplitServiceImpl) Cancel(ctx context.Context, splitID uuid.UUID, callerID string) (*split.SplitPayment, error) {
	var sp *split.SplitPayment
	err := s.locked(ctx, []string{split.LockKey(splitID)}, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		if sp, err = repos.Splits().Get(ctx, splitID); err != nil {
			return err
		}
		if err = sp.Cancel(callerID, s.now()); err != nil {
			return err
		}
		return repos.Splits().Update(ctx, sp)
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("Split cancelled", "split_id", splitID.String())
	return sp, nil
}

func (s *SplitServiceImpl) Get(ctx context.Context, splitID uuid.UUID) (*split.SplitPayment, error) {
	var sp *split.SplitPayment
	err := s.read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		sp, err = repos.Splits().Get(ctx, splitID)
		return err
	})
	return sp, err
}

// ListForUser returns splits userID created or is paid by, newest first
func (s *SplitServiceImpl) ListForUser(ctx context.Context, userID string, limit, offset int) ([]*split.SplitPayment, error) {
	var splits []*split.SplitPayment
	err := s.read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		splits, err = repos.Splits().ListByUser(ctx, userID, limit, offset)
		return err
	})
	return splits, err
}
