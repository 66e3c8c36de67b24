package components

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/domain/uow"
	"github.com/grymey-ledger/internal/domain/wallet"
	"github.com/grymey-ledger/internal/settlement/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegValidator_Validate(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "alice", 3_000_000)
	h.fund(t, "bob", 100)
	validator := NewLegValidator(testLimits, quietLogger())

	tests := []struct {
		name    string
		request func() *transaction.TransferRequest
		wantErr error
	}{
		{
			name:    "valid transfer",
			request: func() *transaction.TransferRequest { return peerTransfer("alice", "bob", 1_000) },
		},
		{
			name: "missing type",
			request: func() *transaction.TransferRequest {
				r := peerTransfer("alice", "bob", 1_000)
				r.Type = ""
				return r
			},
			wantErr: shared.ErrInvalidRequest,
		},
		{
			name: "foreign currency",
			request: func() *transaction.TransferRequest {
				r := peerTransfer("alice", "bob", 1_000)
				r.Currency = "USD"
				return r
			},
			wantErr: shared.ErrInvalidCurrency,
		},
		{
			name: "unbalanced legs",
			request: func() *transaction.TransferRequest {
				r := peerTransfer("alice", "bob", 1_000)
				r.Legs[1].Delta = 900
				return r
			},
			wantErr: shared.ErrInvalidAmount,
		},
		{
			name: "zero delta",
			request: func() *transaction.TransferRequest {
				r := peerTransfer("alice", "bob", 1_000)
				r.Legs = append(r.Legs, transaction.Leg{Account: transaction.ExternalAccount(transaction.SystemFees), Role: transaction.RoleFee})
				return r
			},
			wantErr: shared.ErrInvalidAmount,
		},
		{
			name: "no legs",
			request: func() *transaction.TransferRequest {
				r := peerTransfer("alice", "bob", 1_000)
				r.Legs = nil
				return r
			},
			wantErr: shared.ErrInvalidRequest,
		},
		{
			name: "malformed wallet leg",
			request: func() *transaction.TransferRequest {
				r := peerTransfer("alice", "bob", 1_000)
				r.Legs[1].Account.Mode = "savings"
				return r
			},
			wantErr: shared.ErrInvalidRequest,
		},
		{
			name: "negative headline amount",
			request: func() *transaction.TransferRequest {
				r := peerTransfer("alice", "bob", 1_000)
				r.Amount = -1_000
				return r
			},
			wantErr: shared.ErrInvalidAmount,
		},
		{
			name:    "below minimum",
			request: func() *transaction.TransferRequest { return peerTransfer("alice", "bob", 50) },
			wantErr: ErrLimitExceeded,
		},
		{
			name:    "above maximum",
			request: func() *transaction.TransferRequest { return peerTransfer("alice", "bob", 1_500_000) },
			wantErr: ErrLimitExceeded,
		},
		{
			name:    "not covered",
			request: func() *transaction.TransferRequest { return peerTransfer("bob", "alice", 500) },
			wantErr: shared.ErrInsufficientFunds,
		},
		{
			name: "ghost skips limits",
			request: func() *transaction.TransferRequest {
				return &transaction.TransferRequest{
					Type:       transaction.TypeDeposit,
					Prefix:     reference.PrefixDeposit,
					Currency:   "NGN",
					ReceiverID: "alice",
					Ghost:      true,
					Legs: []transaction.Leg{
						{Account: transaction.ExternalAccount(transaction.SystemFunding), Delta: -10, Role: transaction.RoleSource},
						{Account: transaction.WalletAccount("alice", wallet.ModeGhost), Delta: 10, Role: transaction.RoleReceiver, Create: true},
					},
				}
			},
		},
	}

	ctx, release := h.lockWallets(t, "alice", "bob")
	defer release()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.store.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
				return validator.Validate(ctx, repos, tt.request())
			})
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLegValidator_RollingLimits(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "alice", 5_000_000)
	h.fund(t, "bob", 100)

	validator := NewLegValidator(testLimits, quietLogger()).(*LegValidatorImpl)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	validator.now = func() time.Time { return now }

	// completed history: 1.5M today, 2.8M four days ago, and a ghost transfer that never counts
	seed := []struct {
		amount int64
		at     time.Time
		ghost  bool
	}{
		{1_500_000, now.Add(-2 * time.Hour), false},
		{2_800_000, now.Add(-96 * time.Hour), false},
		{900_000, now.Add(-time.Hour), true},
	}
	err := h.store.Execute(context.Background(), func(ctx context.Context, repos uow.Repositories) error {
		for _, s := range seed {
			txn := transaction.New(reference.NewGenerator().Generate(reference.PrefixTransfer), transaction.TypeTransfer, s.amount, "NGN", s.at)
			txn.SenderID = "alice"
			txn.ReceiverID = "bob"
			txn.Ghost = s.ghost
			require.NoError(t, txn.Complete(s.at))
			if err := repos.Transactions().Create(ctx, txn); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	ctx, release := h.lockWallets(t, "alice", "bob")
	defer release()

	check := func(amount int64) error {
		return h.store.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
			return validator.Validate(ctx, repos, peerTransfer("alice", "bob", amount))
		})
	}

	t.Run("WithinDaily", func(t *testing.T) {
		assert.NoError(t, check(500_000))
	})
	t.Run("DailyExceeded", func(t *testing.T) {
		err := check(500_001)
		require.ErrorIs(t, err, ErrLimitExceeded)
		assert.Contains(t, err.Error(), "daily")
	})

	t.Run("WeeklyExceeded", func(t *testing.T) {
		validator.now = func() time.Time { return now.Add(25 * time.Hour) }
		defer func() { validator.now = func() time.Time { return now } }()

		// the daily window is clear again, the week still holds 4.3M
		assert.NoError(t, check(700_000))
		err := check(700_001)
		require.ErrorIs(t, err, ErrLimitExceeded)
		assert.Contains(t, err.Error(), "weekly")
	})

	t.Run("OtherSenderUnaffected", func(t *testing.T) {
		err := h.store.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
			return validator.ValidateLegs(ctx, repos, peerTransfer("bob", "alice", 100).Legs)
		})
		assert.NoError(t, err)
	})
}

func TestLegValidator_ValidateLegsRequiresLocks(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "alice", 5_000)
	validator := NewLegValidator(testLimits, quietLogger())

	err := h.store.Execute(context.Background(), func(ctx context.Context, repos uow.Repositories) error {
		return validator.ValidateLegs(ctx, repos, []transaction.Leg{
			transaction.Debit("alice", wallet.ModeReal, 100),
			{Account: transaction.HoldingAccount("jar:" + uuid.NewString()), Delta: 100, Role: transaction.RoleHold},
		})
	})
	assert.ErrorIs(t, err, shared.ErrLockNotHeld)
}
