package wallet

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/shared"
)

// Mode separates a user's real money from their practice ("ghost") money.
type Mode string

const (
	ModeReal  Mode = "real"
	ModeGhost Mode = "ghost"
)

// Valid reports whether m is a known wallet mode
func (m Mode) Valid() bool {
	return m == ModeReal || m == ModeGhost
}

// Direction records whether a ledger entry added or removed value
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

var (
	ErrInvalidMode           = errors.New("wallet mode must be real or ghost")
	ErrEmptyOwner            = errors.New("wallet owner cannot be empty")
	ErrInvalidCurrencyFormat = errors.New("currency must be a 3-letter code")
	ErrLedgerMismatch        = errors.New("wallet balance does not match its ledger")
)

// LedgerEntry is one immutable balance-affecting event on a wallet.
type LedgerEntry struct {
	ID            uuid.UUID `json:"id"`
	WalletID      uuid.UUID `json:"wallet_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Amount        int64     `json:"amount"` // signed, minor units
	BalanceBefore int64     `json:"balance_before"`
	BalanceAfter  int64     `json:"balance_after"`
	Direction     Direction `json:"direction"`
	CreatedAt     time.Time `json:"created_at"`
}

// Wallet holds the balance of one owner in one mode.
// Ledger carries the entries known to this copy of the wallet: the full history
// for stores that embed it, or only entries appended in the current unit of work.
type Wallet struct {
	ID        uuid.UUID     `json:"id"`
	OwnerID   string        `json:"owner_id"`
	Mode      Mode          `json:"mode"`
	Balance   int64         `json:"balance"` // Stored in minor units
	Currency  string        `json:"currency"`
	Version   int           `json:"version"` // For optimistic locking
	Ledger    []LedgerEntry `json:"ledger,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// New creates an empty wallet
func New(ownerID string, mode Mode, currency string) (*Wallet, error) {
	if ownerID == "" {
		return nil, ErrEmptyOwner
	}
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}
	if len(currency) != 3 {
		return nil, ErrInvalidCurrencyFormat
	}

	now := time.Now().UTC()
	return &Wallet{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Mode:      mode,
		Currency:  currency,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Apply moves the balance by a signed amount on behalf of a transaction and
// returns the ledger entry that records it.
func (w *Wallet) Apply(transactionID uuid.UUID, amount int64, at time.Time) (LedgerEntry, error) {
	if amount == 0 {
		return LedgerEntry{}, fmt.Errorf("%w: ledger amount cannot be zero", shared.ErrInvalidAmount)
	}
	if w.Balance+amount < 0 {
		return LedgerEntry{}, fmt.Errorf("%w: wallet %s/%s has %d, needs %d", shared.ErrInsufficientFunds, w.OwnerID, w.Mode, w.Balance, -amount)
	}

	entry := LedgerEntry{
		ID:            uuid.New(),
		WalletID:      w.ID,
		TransactionID: transactionID,
		Amount:        amount,
		BalanceBefore: w.Balance,
		BalanceAfter:  w.Balance + amount,
		Direction:     DirectionCredit,
		CreatedAt:     at,
	}
	if amount < 0 {
		entry.Direction = DirectionDebit
	}
	if entry.BalanceAfter != entry.BalanceBefore+entry.Amount {
		return LedgerEntry{}, ErrLedgerMismatch
	}

	w.Balance = entry.BalanceAfter
	w.Ledger = append(w.Ledger, entry)
	w.Version++
	w.UpdatedAt = at
	return entry, nil
}

// CanDebit checks if the wallet covers a debit of amount
func (w *Wallet) CanDebit(amount int64) bool {
	return w.Balance >= amount
}

// Verify checks the balance against a ledger total computed by the caller.
func (w *Wallet) Verify(ledgerTotal int64) error {
	if w.Balance < 0 || w.Balance != ledgerTotal {
		return fmt.Errorf("%w: balance %d, ledger total %d", ErrLedgerMismatch, w.Balance, ledgerTotal)
	}
	return nil
}

// LedgerTotal sums the entries carried on this copy of the wallet
func (w *Wallet) LedgerTotal() int64 {
	var total int64
	for _, e := range w.Ledger {
		total += e.Amount
	}
	return total
}

// LockKey names the lock guarding every wallet of an owner.
func LockKey(ownerID string) string {
	return "wallet:" + ownerID
}
