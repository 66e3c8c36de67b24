package wallet

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		w, err := New("user-1", ModeReal, "NGN")

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, w.ID)
		assert.Equal(t, "user-1", w.OwnerID)
		assert.Equal(t, ModeReal, w.Mode)
		assert.Equal(t, int64(0), w.Balance)
		assert.Equal(t, 1, w.Version)
		assert.Empty(t, w.Ledger)
	})

	t.Run("InvalidInput", func(t *testing.T) {
		_, err := New("", ModeReal, "NGN")
		assert.ErrorIs(t, err, ErrEmptyOwner)

		_, err = New("user-1", Mode("paper"), "NGN")
		assert.ErrorIs(t, err, ErrInvalidMode)

		_, err = New("user-1", ModeGhost, "NAIRA")
		assert.ErrorIs(t, err, ErrInvalidCurrencyFormat)
	})
}

func TestWallet_Apply(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("CreditThenDebit", func(t *testing.T) {
		w, err := New("user-1", ModeReal, "NGN")
		require.NoError(t, err)
		txnID := uuid.New()

		credit, err := w.Apply(txnID, 1000, at)
		require.NoError(t, err)
		assert.Equal(t, DirectionCredit, credit.Direction)
		assert.Equal(t, int64(0), credit.BalanceBefore)
		assert.Equal(t, int64(1000), credit.BalanceAfter)
		assert.Equal(t, txnID, credit.TransactionID)
		assert.Equal(t, w.ID, credit.WalletID)

		debit, err := w.Apply(uuid.New(), -400, at)
		require.NoError(t, err)
		assert.Equal(t, DirectionDebit, debit.Direction)
		assert.Equal(t, int64(1000), debit.BalanceBefore)
		assert.Equal(t, int64(600), debit.BalanceAfter)

		assert.Equal(t, int64(600), w.Balance)
		assert.Equal(t, 3, w.Version)
		assert.Len(t, w.Ledger, 2)
		assert.Equal(t, w.Balance, w.LedgerTotal())
		assert.NoError(t, w.Verify(w.LedgerTotal()))
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		w, err := New("user-1", ModeReal, "NGN")
		require.NoError(t, err)
		_, err = w.Apply(uuid.New(), 1000, at)
		require.NoError(t, err)

		_, err = w.Apply(uuid.New(), -1500, at)

		assert.True(t, errors.Is(err, shared.ErrInsufficientFunds))
		assert.Equal(t, int64(1000), w.Balance)
		assert.Len(t, w.Ledger, 1)
		assert.Equal(t, 2, w.Version)
	})

	t.Run("ZeroAmount", func(t *testing.T) {
		w, err := New("user-1", ModeReal, "NGN")
		require.NoError(t, err)

		_, err = w.Apply(uuid.New(), 0, at)

		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
		assert.Empty(t, w.Ledger)
	})
}

func TestWallet_Verify(t *testing.T) {
	w := &Wallet{Balance: 500}

	assert.NoError(t, w.Verify(500))
	assert.ErrorIs(t, w.Verify(400), ErrLedgerMismatch)

	w.Balance = -1
	assert.ErrorIs(t, w.Verify(-1), ErrLedgerMismatch)
}

func TestErrWalletNotFound_Is(t *testing.T) {
	err := ErrWalletNotFound{OwnerID: "user-1", Mode: ModeReal}

	assert.True(t, errors.Is(err, shared.ErrNotFound))
	assert.True(t, errors.Is(err, ErrWalletNotFound{}))
	assert.True(t, errors.Is(err, ErrWalletNotFound{OwnerID: "user-1", Mode: ModeReal}))
	assert.False(t, errors.Is(err, ErrWalletNotFound{OwnerID: "user-1", Mode: ModeGhost}))
}

func TestLockKey(t *testing.T) {
	assert.Equal(t, "wallet:user-1", LockKey("user-1"))
}
