package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/escrow"
	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/domain/uow"
	"github.com/grymey-ledger/internal/domain/wallet"
	"github.com/grymey-ledger/internal/settlement/reference"
)

// CreateEscrowInput describes a new escrow
type CreateEscrowInput struct {
	SenderID    string
	ReceiverID  string
	Amount      int64
	Description string
	Conditions  []string
	ExpiresAt   *time.Time // defaults to now + the configured expiry
}

type EscrowServiceImpl struct {
	settlement
	defaultExpiry time.Duration
}

func NewEscrowService(deps Dependencies, defaultExpiry time.Duration) *EscrowServiceImpl {
	return &EscrowServiceImpl{
		settlement:    newSettlement(deps, "escrow_service"),
		defaultExpiry: defaultExpiry,
	}
}

// Create moves the amount from the sender's real wallet into the escrow's holding
// account. The linked transaction stays pending until release or cancellation.
func (s *EscrowServiceImpl) Create(ctx context.Context, input CreateEscrowInput) (*escrow.Escrow, error) {
	now := s.now()
	expiresAt := now.Add(s.defaultExpiry)
	if input.ExpiresAt != nil {
		expiresAt = *input.ExpiresAt
	}

	e, err := escrow.New(input.SenderID, input.ReceiverID, input.Amount, s.currency, input.Description, input.Conditions, expiresAt, now)
	if err != nil {
		return nil, err
	}

	keys := []string{escrow.LockKey(e.ID), wallet.LockKey(e.SenderID)}
	err = s.locked(ctx, keys, func(ctx context.Context, repos uow.Repositories) error {
		txn, err := s.engine.Transfer(ctx, repos, &transaction.TransferRequest{
			Type:       transaction.TypeEscrow,
			Prefix:     reference.PrefixEscrow,
			Currency:   s.currency,
			SenderID:   e.SenderID,
			ReceiverID: e.ReceiverID,
			Amount:     e.Amount,
			Metadata:   map[string]any{"escrow_id": e.ID.String()},
			Legs: []transaction.Leg{
				transaction.Debit(e.SenderID, wallet.ModeReal, e.Amount),
				{Account: transaction.HoldingAccount(e.HoldingRef()), Delta: e.Amount, Role: transaction.RoleHold},
			},
			Hold: true,
		})
		if err != nil {
			return err
		}

		e.TransactionID = txn.ID
		if err := repos.Escrows().Create(ctx, e); err != nil {
			return fmt.Errorf("failed to create escrow %s: %w", e.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("Escrow created", "escrow_id", e.ID.String(), "sender_id", e.SenderID, "receiver_id", e.ReceiverID, "amount", e.Amount)
	return e, nil
}

// Release pays the held amount to the receiver and completes the transaction
func (s *EscrowServiceImpl) Release(ctx context.Context, escrowID uuid.UUID, callerID string) (*escrow.Escrow, error) {
	return s.close(ctx, escrowID, func(ctx context.Context, repos uow.Repositories, e *escrow.Escrow) error {
		if err := e.Release(callerID, s.now()); err != nil {
			return err
		}
		legs := []transaction.Leg{
			{Account: transaction.HoldingAccount(e.HoldingRef()), Delta: -e.Amount, Role: transaction.RoleHold},
			{Account: transaction.WalletAccount(e.ReceiverID, wallet.ModeReal), Delta: e.Amount, Role: transaction.RoleReceiver, Create: true},
		}
		_, err := s.engine.Settle(ctx, repos, e.TransactionID, legs, e.ReceiverID)
		return err
	}, func(e *escrow.Escrow) string { return e.ReceiverID })
}

// Cancel refunds the sender and reverses the transaction. A sender cancelling
// ends in cancelled, a receiver declining ends in refunded.
func (s *EscrowServiceImpl) Cancel(ctx context.Context, escrowID uuid.UUID, callerID, reason string) (*escrow.Escrow, error) {
	return s.close(ctx, escrowID, func(ctx context.Context, repos uow.Repositories, e *escrow.Escrow) error {
		if err := e.Cancel(callerID, s.now()); err != nil {
			return err
		}
		legs := []transaction.Leg{
			{Account: transaction.HoldingAccount(e.HoldingRef()), Delta: -e.Amount, Role: transaction.RoleHold},
			{Account: transaction.WalletAccount(e.SenderID, wallet.ModeReal), Delta: e.Amount, Role: transaction.RoleSender},
		}
		if _, err := s.engine.Reverse(ctx, repos, e.TransactionID, legs); err != nil {
			return err
		}
		s.log(ctx).Info("Escrow cancelled", "escrow_id", e.ID.String(), "by", callerID, "status", e.Status, "reason", reason)
		return nil
	}, func(e *escrow.Escrow) string { return e.SenderID })
}

// RaiseDispute freezes the escrow for arbitration. No money moves.
func (s *EscrowServiceImpl) RaiseDispute(ctx context.Context, escrowID uuid.UUID, callerID, reason string) (*escrow.Escrow, error) {
	var result *escrow.Escrow
	err := s.locked(ctx, []string{escrow.LockKey(escrowID)}, func(ctx context.Context, repos uow.Repositories) error {
		e, err := repos.Escrows().Get(ctx, escrowID)
		if err != nil {
			return err
		}
		if err := e.RaiseDispute(callerID, reason, s.now()); err != nil {
			return err
		}
		if err := repos.Escrows().Update(ctx, e); err != nil {
			return fmt.Errorf("failed to update escrow %s: %w", e.ID, err)
		}
		result = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("Escrow disputed", "escrow_id", escrowID.String(), "by", callerID)
	return result, nil
}

// close loads the escrow under its own lock first so the wallet to credit is known,
// then takes that wallet lock and applies fn.
func (s *EscrowServiceImpl) close(ctx context.Context, escrowID uuid.UUID, fn func(ctx context.Context, repos uow.Repositories, e *escrow.Escrow) error, payee func(*escrow.Escrow) string) (*escrow.Escrow, error) {
	ctx, release, err := s.locks.Acquire(ctx, escrow.LockKey(escrowID))
	if err != nil {
		return nil, err
	}
	defer release()

	var e *escrow.Escrow
	if err = s.read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		e, err = repos.Escrows().Get(ctx, escrowID)
		return err
	}); err != nil {
		return nil, err
	}

	err = s.locked(ctx, []string{wallet.LockKey(payee(e))}, func(ctx context.Context, repos uow.Repositories) error {
		current, err := repos.Escrows().Get(ctx, escrowID)
		if err != nil {
			return err
		}
		if err := fn(ctx, repos, current); err != nil {
			return err
		}
		if err := repos.Escrows().Update(ctx, current); err != nil {
			return fmt.Errorf("failed to update escrow %s: %w", current.ID, err)
		}
		e = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EscrowServiceImpl) Get(ctx context.Context, escrowID uuid.UUID, callerID string) (*escrow.Escrow, error) {
	var e *escrow.Escrow
	err := s.read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		e, err = repos.Escrows().Get(ctx, escrowID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !e.IsParty(callerID) {
		return nil, escrow.NotFound(escrowID)
	}
	return e, nil
}

func (s *EscrowServiceImpl) ListForUser(ctx context.Context, userID string, limit, offset int) ([]*escrow.Escrow, error) {
	var escrows []*escrow.Escrow
	err := s.read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		escrows, err = repos.Escrows().ListByUser(ctx, userID, limit, offset)
		return err
	})
	return escrows, err
}
