package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/wallet"
)

type walletRepository struct {
	rows *staged[walletKey, *wallet.Wallet]
}

// Get returns the wallet without its embedded ledger
func (r *walletRepository) Get(ctx context.Context, ownerID string, mode wallet.Mode) (*wallet.Wallet, error) {
	w, ok := r.rows.get(walletKey{owner: ownerID, mode: mode})
	if !ok {
		return nil, wallet.ErrWalletNotFound{OwnerID: ownerID, Mode: mode}
	}
	w.Ledger = nil
	return w, nil
}

func (r *walletRepository) Create(ctx context.Context, w *wallet.Wallet) error {
	key := walletKey{owner: w.OwnerID, mode: w.Mode}
	if _, ok := r.rows.get(key); ok {
		return wallet.ErrConcurrentModification{WalletID: w.ID}
	}
	stored := *w
	stored.Ledger = nil
	r.rows.put(key, &stored)
	return nil
}

// Update writes balance and version. Ledger entries only arrive through AppendEntry.
func (r *walletRepository) Update(ctx context.Context, w *wallet.Wallet, expectedVersion int) error {
	key := walletKey{owner: w.OwnerID, mode: w.Mode}
	current, ok := r.rows.get(key)
	if !ok {
		return wallet.ErrWalletNotFound{OwnerID: w.OwnerID, Mode: w.Mode}
	}
	if current.Version != expectedVersion {
		return wallet.ErrConcurrentModification{WalletID: w.ID}
	}

	current.Balance = w.Balance
	current.Version = w.Version
	current.UpdatedAt = w.UpdatedAt
	r.rows.put(key, current)
	return nil
}

func (r *walletRepository) byID(id uuid.UUID) (walletKey, *wallet.Wallet, bool) {
	for _, w := range r.rows.all() {
		if w.ID == id {
			return walletKey{owner: w.OwnerID, mode: w.Mode}, w, true
		}
	}
	return walletKey{}, nil, false
}

func (r *walletRepository) AppendEntry(ctx context.Context, entry *wallet.LedgerEntry) error {
	key, w, ok := r.byID(entry.WalletID)
	if !ok {
		return wallet.ErrWalletNotFound{}
	}
	w.Ledger = append(w.Ledger, *entry)
	r.rows.put(key, w)
	return nil
}

// ListEntries returns the newest entries first
func (r *walletRepository) ListEntries(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]wallet.LedgerEntry, error) {
	_, w, ok := r.byID(walletID)
	if !ok {
		return nil, wallet.ErrWalletNotFound{}
	}

	entries := slices.Clone(w.Ledger)
	slices.Reverse(entries)
	return page(entries, limit, offset), nil
}

func (r *walletRepository) SumEntries(ctx context.Context, walletID uuid.UUID) (int64, error) {
	_, w, ok := r.byID(walletID)
	if !ok {
		return 0, wallet.ErrWalletNotFound{}
	}
	return w.LedgerTotal(), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
