package components

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/config"
	"github.com/grymey-ledger/internal/data/memory"
	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/domain/uow"
	"github.com/grymey-ledger/internal/domain/wallet"
	"github.com/grymey-ledger/internal/settlement/lock"
	"github.com/grymey-ledger/internal/settlement/reference"
	"github.com/grymey-ledger/internal/settlement/service"
	"github.com/stretchr/testify/require"
)

var testLimits = config.LimitsConfig{
	Currency:            "NGN",
	MinTransferAmount:   100,
	MaxTransferAmount:   1_000_000,
	DailyTransferLimit:  2_000_000,
	WeeklyTransferLimit: 5_000_000,
}

type harness struct {
	store  *memory.Store
	locks  *lock.Manager
	ledger service.LedgerStore
	engine service.TransferEngine
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := quietLogger()
	store := memory.NewStore(logger)
	references := reference.NewGenerator()
	outboxManager := NewOutboxManager(logger)
	ledger := NewLedgerStore(testLimits.Currency, logger)

	return &harness{
		store:  store,
		locks:  lock.NewManager(3, 5*time.Millisecond, logger),
		ledger: ledger,
		engine: NewTransferEngine(
			ledger,
			NewLegValidator(testLimits, logger),
			outboxManager,
			NewFailureRecorder(store, outboxManager, references, logger),
			references,
			logger,
		),
	}
}

// lockWallets returns a context holding the wallet locks of owners and its release func
func (h *harness) lockWallets(t *testing.T, owners ...string) (context.Context, func()) {
	t.Helper()
	keys := make([]string, 0, len(owners))
	for _, owner := range owners {
		keys = append(keys, wallet.LockKey(owner))
	}
	ctx, release, err := h.locks.Acquire(context.Background(), keys...)
	require.NoError(t, err)
	return ctx, release
}

// fund opens owner's real wallet with balance
func (h *harness) fund(t *testing.T, owner string, balance int64) {
	t.Helper()
	ctx, release := h.lockWallets(t, owner)
	defer release()
	err := h.store.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		_, err := h.ledger.Credit(ctx, repos, owner, wallet.ModeReal, balance, uuid.New(), true)
		return err
	})
	require.NoError(t, err)
}

func (h *harness) balance(t *testing.T, owner string) int64 {
	t.Helper()
	var bal int64
	err := h.store.Execute(context.Background(), func(ctx context.Context, repos uow.Repositories) error {
		var err error
		bal, err = h.ledger.GetBalance(ctx, repos, owner, wallet.ModeReal)
		return err
	})
	require.NoError(t, err)
	return bal
}

func (h *harness) transfer(ctx context.Context, request *transaction.TransferRequest) (*transaction.Transaction, error) {
	var txn *transaction.Transaction
	err := h.store.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		txn, err = h.engine.Transfer(ctx, repos, request)
		return err
	})
	return txn, err
}

func (h *harness) transactionsOf(t *testing.T, userID string) []*transaction.Transaction {
	t.Helper()
	var txns []*transaction.Transaction
	err := h.store.Execute(context.Background(), func(ctx context.Context, repos uow.Repositories) error {
		var err error
		txns, err = repos.Transactions().ListByUser(ctx, userID, transaction.Filter{})
		return err
	})
	require.NoError(t, err)
	return txns
}

func peerTransfer(sender, receiver string, amount int64) *transaction.TransferRequest {
	return &transaction.TransferRequest{
		Type:       transaction.TypeTransfer,
		Prefix:     reference.PrefixTransfer,
		Currency:   "NGN",
		SenderID:   sender,
		ReceiverID: receiver,
		Legs: []transaction.Leg{
			transaction.Debit(sender, wallet.ModeReal, amount),
			transaction.Credit(receiver, wallet.ModeReal, amount),
		},
	}
}
