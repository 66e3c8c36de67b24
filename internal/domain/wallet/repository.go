package wallet

import (
	"context"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/shared"
)

// Repository defines wallet and ledger persistence operations
type Repository interface {
	// Get loads a wallet without its ledger history; stores that support it lock the row
	Get(ctx context.Context, ownerID string, mode Mode) (*Wallet, error)
	Create(ctx context.Context, wallet *Wallet) error

	// Update persists balance and version using optimistic locking against expectedVersion
	Update(ctx context.Context, wallet *Wallet, expectedVersion int) error

	AppendEntry(ctx context.Context, entry *LedgerEntry) error
	ListEntries(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]LedgerEntry, error)
	SumEntries(ctx context.Context, walletID uuid.UUID) (int64, error)
}

// ErrWalletNotFound indicates a missing wallet
type ErrWalletNotFound struct {
	OwnerID string
	Mode    Mode
}

func (e ErrWalletNotFound) Error() string {
	return "wallet not found: " + e.OwnerID + "/" + string(e.Mode)
}

// Is matches shared.ErrNotFound and any ErrWalletNotFound with an empty OwnerID
func (e ErrWalletNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	t, ok := target.(ErrWalletNotFound)
	if !ok {
		return false
	}
	if t.OwnerID == "" {
		return true
	}
	return e.OwnerID == t.OwnerID && e.Mode == t.Mode
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	WalletID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for wallet: " + e.WalletID.String()
}
