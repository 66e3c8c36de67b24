package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/grymey-ledger/internal/domain/uow"
	"github.com/grymey-ledger/internal/domain/wallet"
	"github.com/grymey-ledger/internal/logger"
	"github.com/grymey-ledger/internal/settlement/lock"
	"github.com/grymey-ledger/internal/settlement/service"
)

// LedgerStoreImpl implements the LedgerStore interface
type LedgerStoreImpl struct {
	currency string
	logger   *slog.Logger
}

// NewLedgerStore creates a ledger store that opens new wallets in currency
func NewLedgerStore(currency string, logger *slog.Logger) service.LedgerStore {
	return &LedgerStoreImpl{
		currency: currency,
		logger:   logger,
	}
}

func (s *LedgerStoreImpl) GetBalance(ctx context.Context, repos uow.Repositories, ownerID string, mode wallet.Mode) (int64, error) {
	w, err := repos.Wallets().Get(ctx, ownerID, mode)
	if err != nil {
		return 0, err
	}
	return w.Balance, nil
}

// Debit removes amount from the wallet, failing with ErrInsufficientFunds when it is not covered
func (s *LedgerStoreImpl) Debit(ctx context.Context, repos uow.Repositories, ownerID string, mode wallet.Mode, amount int64, transactionID uuid.UUID) (*wallet.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: debit must be positive: %d", shared.ErrInvalidAmount, amount)
	}
	return s.apply(ctx, repos, ownerID, mode, -amount, transactionID, false)
}

// Credit adds amount to the wallet. With create set, a missing wallet is opened first.
func (s *LedgerStoreImpl) Credit(ctx context.Context, repos uow.Repositories, ownerID string, mode wallet.Mode, amount int64, transactionID uuid.UUID, create bool) (*wallet.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: credit must be positive: %d", shared.ErrInvalidAmount, amount)
	}
	return s.apply(ctx, repos, ownerID, mode, amount, transactionID, create)
}

func (s *LedgerStoreImpl) apply(ctx context.Context, repos uow.Repositories, ownerID string, mode wallet.Mode, delta int64, transactionID uuid.UUID, create bool) (*wallet.LedgerEntry, error) {
	log := logger.FromContext(ctx, s.logger)

	key := wallet.LockKey(ownerID)
	if !lock.Holds(ctx, key) {
		log.Error("Wallet mutation attempted without its lock", "owner_id", ownerID, "txn_id", transactionID.String())
		return nil, fmt.Errorf("%w: %s", shared.ErrLockNotHeld, key)
	}

	wallets := repos.Wallets()
	w, err := wallets.Get(ctx, ownerID, mode)
	if err != nil {
		if !create || !errors.Is(err, wallet.ErrWalletNotFound{}) {
			log.Warn("Failed to load wallet", "owner_id", ownerID, "mode", mode, "error", err)
			return nil, err
		}
		if w, err = wallet.New(ownerID, mode, s.currency); err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrInvalidRequest, err)
		}
		if err = wallets.Create(ctx, w); err != nil {
			log.Error("Failed to open wallet", "owner_id", ownerID, "mode", mode, "error", err)
			return nil, fmt.Errorf("failed to open wallet %s/%s: %w", ownerID, mode, err)
		}
		log.Info("Wallet opened", "owner_id", ownerID, "mode", mode, "wallet_id", w.ID.String())
	}

	expectedVersion := w.Version
	entry, err := w.Apply(transactionID, delta, time.Now().UTC())
	if err != nil {
		log.Warn("Ledger entry rejected", "owner_id", ownerID, "mode", mode, "bal", w.Balance, "delta", delta, "error", err)
		return nil, err
	}

	if err = wallets.Update(ctx, w, expectedVersion); err != nil {
		log.Error("Failed to update wallet", "wallet_id", w.ID.String(), "error", err)
		return nil, fmt.Errorf("failed to update wallet %s: %w", w.ID, err)
	}
	if err = wallets.AppendEntry(ctx, &entry); err != nil {
		log.Error("Failed to append ledger entry", "wallet_id", w.ID.String(), "error", err)
		return nil, fmt.Errorf("failed to append ledger entry for wallet %s: %w", w.ID, err)
	}

	log.Debug("Ledger entry appended", "wallet_id", w.ID.String(), "txn_id", transactionID.String(), "delta", delta, "new_bal", entry.BalanceAfter)
	return &entry, nil
}
