package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/grymey-ledger/internal/domain/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentDoubleSpend(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.deposit(t, "alice", 1_000)
	e.deposit(t, "bob", 100)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
		rejected  atomic.Int64
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.services.Payments.Transfer(ctx, "alice", "bob", 100, wallet.ModeReal, "")
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, shared.ErrInsufficientFunds):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), succeeded.Load())
	assert.Equal(t, int64(15), rejected.Load())
	assert.Equal(t, int64(0), e.balance(t, "alice"))
	assert.Equal(t, int64(1_100), e.balance(t, "bob"))
	e.verify(t, "alice", "bob")
}

func TestConcurrentOpposingTransfers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.deposit(t, "alice", 50_000)
	e.deposit(t, "bob", 50_000)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := e.services.Payments.Transfer(ctx, "alice", "bob", 300, wallet.ModeReal, "")
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := e.services.Payments.Transfer(ctx, "bob", "alice", 200, wallet.ModeReal, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50_000-20*100), e.balance(t, "alice"))
	assert.Equal(t, int64(50_000+20*100), e.balance(t, "bob"))
	e.verify(t, "alice", "bob")
}

func TestConcurrentCircleApprovals(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := quorumCircle(t, e, 1)

	res, err := e.services.Circles.Withdraw(ctx, c.ID, "carol", 5_000, "")
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		executed atomic.Int64
	)
	for _, approver := range []string{"alice", "bob"} {
		wg.Add(1)
		go func(approver string) {
			defer wg.Done()
			_, err := e.services.Circles.ApproveWithdrawal(ctx, c.ID, res.Withdrawal.ID, approver)
			if err == nil {
				executed.Add(1)
				return
			}
			assert.ErrorIs(t, err, shared.ErrInvalidState)
		}(approver)
	}
	wg.Wait()

	assert.Equal(t, int64(1), executed.Load())
	assert.Equal(t, int64(2_000+5_000), e.balance(t, "carol"))

	got, err := e.services.Circles.Get(ctx, c.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, int64(3_000), got.TotalBalance)
	assert.NoError(t, got.CheckInvariant())
}

func TestConcurrentEscrowClose(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.deposit(t, "alice", 10_000)
	es := createEscrow(t, e, 4_000)

	var (
		wg     sync.WaitGroup
		closed atomic.Int64
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := e.services.Escrows.Release(ctx, es.ID, "alice"); err == nil {
			closed.Add(1)
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := e.services.Escrows.Cancel(ctx, es.ID, "bob", "declined"); err == nil {
			closed.Add(1)
		}
	}()
	wg.Wait()

	require.Equal(t, int64(1), closed.Load())
	assert.Equal(t, int64(10_000), e.balance(t, "alice")+e.balance(t, "bob"))
	e.verify(t, "alice")
}
