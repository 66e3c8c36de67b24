package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/grymey-ledger/internal/config"
	"github.com/grymey-ledger/internal/data/memory"
	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/domain/uow"
	"github.com/grymey-ledger/internal/domain/wallet"
	"github.com/grymey-ledger/internal/settlement/components"
	"github.com/grymey-ledger/internal/settlement/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const billFee = 100

func testConfig() *config.Config {
	return &config.Config{
		Lock: config.LockConfig{MaxAttempts: 500, RetryDelay: 2 * time.Millisecond},
		Limits: config.LimitsConfig{
			Currency:            "NGN",
			MinTransferAmount:   100,
			MaxTransferAmount:   10_000_000,
			DailyTransferLimit:  50_000_000,
			WeeklyTransferLimit: 100_000_000,
		},
		Settlement: config.SettlementConfig{
			EscrowDefaultExpiry:   72 * time.Hour,
			JarDefaultPenaltyRate: decimal.RequireFromString("0.1"),
			BillPaymentFee:        billFee,
		},
	}
}

type env struct {
	store    *memory.Store
	faults   *faultyUnitOfWork
	services *components.Services
}

type envOption func(cfg *config.Config, entitlements *service.EntitlementChecker)

func withEntitlements(checker service.EntitlementChecker) envOption {
	return func(_ *config.Config, entitlements *service.EntitlementChecker) {
		*entitlements = checker
	}
}

func withDailyLimit(daily int64) envOption {
	return func(cfg *config.Config, _ *service.EntitlementChecker) {
		cfg.Limits.DailyTransferLimit = daily
	}
}

func newEnv(t *testing.T, opts ...envOption) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig()
	var entitlements service.EntitlementChecker
	for _, opt := range opts {
		opt(cfg, &entitlements)
	}

	store := memory.NewStore(logger)
	faults := &faultyUnitOfWork{inner: store}
	return &env{
		store:    store,
		faults:   faults,
		services: components.CreateSettlementServices(faults, cfg, entitlements, logger),
	}
}

func (e *env) deposit(t *testing.T, userID string, amount int64) {
	t.Helper()
	_, err := e.services.Payments.Deposit(context.Background(), userID, amount, wallet.ModeReal)
	require.NoError(t, err)
}

func (e *env) balance(t *testing.T, userID string) int64 {
	t.Helper()
	w, err := e.services.Wallets.GetWallet(context.Background(), userID, wallet.ModeReal)
	if errors.Is(err, wallet.ErrWalletNotFound{}) {
		return 0
	}
	require.NoError(t, err)
	return w.Balance
}

func (e *env) verify(t *testing.T, userIDs ...string) {
	t.Helper()
	for _, userID := range userIDs {
		require.NoError(t, e.services.Wallets.VerifyWallet(context.Background(), userID, wallet.ModeReal), userID)
	}
}

func (e *env) transactions(t *testing.T, userID string, typ transaction.Type) []*transaction.Transaction {
	t.Helper()
	txns, err := e.services.Wallets.ListTransactions(context.Background(), userID, transaction.Filter{Type: typ})
	require.NoError(t, err)
	return txns
}

// faultyUnitOfWork fails the Nth transaction write made through it, counting from 1
type faultyUnitOfWork struct {
	inner      uow.UnitOfWork
	failOnSave atomic.Int64
	saves      atomic.Int64
}

var errInjected = errors.New("injected storage failure")

func (f *faultyUnitOfWork) failAfter(n int64) {
	f.saves.Store(0)
	f.failOnSave.Store(n + 1)
}

func (f *faultyUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, repos uow.Repositories) error) error {
	return f.inner.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		return fn(ctx, &faultyRepos{Repositories: repos, owner: f})
	})
}

type faultyRepos struct {
	uow.Repositories
	owner *faultyUnitOfWork
}

func (r *faultyRepos) Transactions() transaction.Repository {
	return &faultyTransactions{Repository: r.Repositories.Transactions(), owner: r.owner}
}

type faultyTransactions struct {
	transaction.Repository
	owner *faultyUnitOfWork
}

func (t *faultyTransactions) Update(ctx context.Context, txn *transaction.Transaction) error {
	n := t.owner.saves.Add(1)
	if fail := t.owner.failOnSave.Load(); fail > 0 && n == fail {
		return errInjected
	}
	return t.Repository.Update(ctx, txn)
}
