package service

import (
	"context"
	"fmt"

	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/domain/uow"
	"github.com/grymey-ledger/internal/domain/wallet"
)

// WalletServiceImpl serves read access to wallets, ledgers and transactions
type WalletServiceImpl struct {
	settlement
}

func NewWalletService(deps Dependencies) *WalletServiceImpl {
	return &WalletServiceImpl{settlement: newSettlement(deps, "wallet_service")}
}

func (s *WalletServiceImpl) GetWallet(ctx context.Context, ownerID string, mode wallet.Mode) (*wallet.Wallet, error) {
	var w *wallet.Wallet
	err := s.read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		w, err = repos.Wallets().Get(ctx, ownerID, mode)
		return err
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// ListEntries pages through a wallet's ledger, newest first
func (s *WalletServiceImpl) ListEntries(ctx context.Context, ownerID string, mode wallet.Mode, limit, offset int) ([]wallet.LedgerEntry, error) {
	var entries []wallet.LedgerEntry
	err := s.read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		w, err := repos.Wallets().Get(ctx, ownerID, mode)
		if err != nil {
			return err
		}
		entries, err = repos.Wallets().ListEntries(ctx, w.ID, limit, offset)
		return err
	})
	return entries, err
}

// VerifyWallet recomputes the ledger total under the wallet lock and compares it
// to the stored balance
func (s *WalletServiceImpl) VerifyWallet(ctx context.Context, ownerID string, mode wallet.Mode) error {
	return s.locked(ctx, []string{wallet.LockKey(ownerID)}, func(ctx context.Context, repos uow.Repositories) error {
		w, err := repos.Wallets().Get(ctx, ownerID, mode)
		if err != nil {
			return err
		}
		total, err := repos.Wallets().SumEntries(ctx, w.ID)
		if err != nil {
			return fmt.Errorf("failed to sum ledger of wallet %s: %w", w.ID, err)
		}
		if err := w.Verify(total); err != nil {
			s.log(ctx).Error("Wallet ledger mismatch", "wallet_id", w.ID.String(), "bal", w.Balance, "ledger_total", total)
			return err
		}
		return nil
	})
}

// GetTransaction returns a transaction to its sender or receiver
func (s *WalletServiceImpl) GetTransaction(ctx context.Context, reference, callerID string) (*transaction.Transaction, error) {
	var txn *transaction.Transaction
	err := s.read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		txn, err = repos.Transactions().GetByReference(ctx, reference)
		return err
	})
	if err != nil {
		return nil, err
	}
	if txn.SenderID != callerID && txn.ReceiverID != callerID {
		return nil, transaction.ErrTransactionNotFound{Key: reference}
	}
	return txn, nil
}

func (s *WalletServiceImpl) ListTransactions(ctx context.Context, userID string, filter transaction.Filter) ([]*transaction.Transaction, error) {
	var txns []*transaction.Transaction
	err := s.read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		txns, err = repos.Transactions().ListByUser(ctx, userID, filter)
		return err
	})
	return txns, err
}
