package components

import (
	"context"
	"testing"
	"time"

	"github.com/grymey-ledger/internal/config"
	"github.com/grymey-ledger/internal/data/memory"
	"github.com/grymey-ledger/internal/domain/wallet"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSettlementServices(t *testing.T) {
	cfg := &config.Config{
		Lock:   config.LockConfig{MaxAttempts: 3, RetryDelay: 10 * time.Millisecond},
		Limits: testLimits,
		Settlement: config.SettlementConfig{
			EscrowDefaultExpiry:   time.Hour,
			JarDefaultPenaltyRate: decimal.RequireFromString("0.05"),
			BillPaymentFee:        100,
		},
	}

	services := CreateSettlementServices(memory.NewStore(quietLogger()), cfg, nil, quietLogger())
	require.NotNil(t, services)
	assert.NotNil(t, services.Wallets)
	assert.NotNil(t, services.Payments)
	assert.NotNil(t, services.Escrows)
	assert.NotNil(t, services.Splits)
	assert.NotNil(t, services.Circles)
	assert.NotNil(t, services.Jars)

	// every service shares the same store and engine
	ctx := context.Background()
	_, err := services.Payments.Deposit(ctx, "alice", 10_000, wallet.ModeReal)
	require.NoError(t, err)

	w, err := services.Wallets.GetWallet(ctx, "alice", wallet.ModeReal)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), w.Balance)
	assert.Equal(t, "NGN", w.Currency)
}
