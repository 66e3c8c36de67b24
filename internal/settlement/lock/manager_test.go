package lock

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(attempts int, delay time.Duration) *Manager {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewManager(attempts, delay, logger)
}

func TestManager_AcquireRelease(t *testing.T) {
	m := newTestManager(5, 10*time.Millisecond)

	ctx, release, err := m.Acquire(context.Background(), "wallet:bob", "wallet:alice")
	require.NoError(t, err)
	assert.True(t, Holds(ctx, "wallet:alice"))
	assert.True(t, Holds(ctx, "wallet:bob"))
	assert.False(t, Holds(context.Background(), "wallet:alice"))

	release()
	release()

	_, again, err := m.Acquire(context.Background(), "wallet:alice")
	require.NoError(t, err)
	again()

	m.mu.Lock()
	assert.Empty(t, m.entries)
	m.mu.Unlock()
}

func TestManager_BoundedRetry(t *testing.T) {
	m := newTestManager(3, 10*time.Millisecond)

	_, release, err := m.Acquire(context.Background(), "circle:1")
	require.NoError(t, err)
	defer release()

	start := time.Now()
	_, _, err = m.Acquire(context.Background(), "circle:1")
	elapsed := time.Since(start)

	assert.True(t, errors.Is(err, shared.ErrLockUnavailable))
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestManager_WaiterWakesOnRelease(t *testing.T) {
	m := newTestManager(5, 50*time.Millisecond)

	_, release, err := m.Acquire(context.Background(), "jar:1")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, r, err := m.Acquire(context.Background(), "jar:1")
		if err == nil {
			r()
		}
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	release()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the lock")
	}
}

func TestManager_FailedMultiAcquireReleasesPartialLocks(t *testing.T) {
	m := newTestManager(2, 5*time.Millisecond)

	_, holdB, err := m.Acquire(context.Background(), "wallet:b")
	require.NoError(t, err)

	_, _, err = m.Acquire(context.Background(), "wallet:a", "wallet:b")
	require.ErrorIs(t, err, shared.ErrLockUnavailable)

	_, releaseA, err := m.Acquire(context.Background(), "wallet:a")
	require.NoError(t, err, "wallet:a must not stay locked after the failed call")
	releaseA()
	holdB()
}

func TestManager_NestedAcquire(t *testing.T) {
	m := newTestManager(2, 5*time.Millisecond)

	ctx, releaseCircle, err := m.Acquire(context.Background(), "circle:1")
	require.NoError(t, err)
	defer releaseCircle()

	t.Run("ReentrantKeyIsFree", func(t *testing.T) {
		same, release, err := m.Acquire(ctx, "circle:1")
		require.NoError(t, err)
		release()
		assert.True(t, Holds(same, "circle:1"))
		assert.True(t, Holds(ctx, "circle:1"), "inner release must not drop the outer lock")
	})

	t.Run("LaterKeysAllowed", func(t *testing.T) {
		inner, release, err := m.Acquire(ctx, "wallet:alice")
		require.NoError(t, err)
		defer release()
		assert.True(t, Holds(inner, "circle:1"))
		assert.True(t, Holds(inner, "wallet:alice"))
	})

	t.Run("EarlierKeysRejected", func(t *testing.T) {
		_, _, err := m.Acquire(ctx, "card:1")
		assert.ErrorIs(t, err, ErrLockOrder)
	})
}

func TestManager_ContextCancelled(t *testing.T) {
	m := newTestManager(5, 100*time.Millisecond)

	_, release, err := m.Acquire(context.Background(), "split:1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err = m.Acquire(ctx, "split:1")
	assert.ErrorIs(t, err, shared.ErrLockUnavailable)
}

func TestManager_MutualExclusion(t *testing.T) {
	m := newTestManager(1000, time.Millisecond)

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, release, err := m.Acquire(context.Background(), "wallet:shared")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxInside)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}
