package escrow

import (
	"errors"
	"testing"
	"time"

	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newEscrow(t *testing.T) *Escrow {
	t.Helper()
	e, err := New("alice", "bob", 500, "NGN", "laptop", []string{"delivered"}, now.Add(30*24*time.Hour), now)
	require.NoError(t, err)
	return e
}

func TestNew(t *testing.T) {
	e := newEscrow(t)
	assert.Equal(t, StatusPending, e.Status)
	assert.Equal(t, 1, e.Version)
	assert.Equal(t, "escrow:"+e.ID.String(), e.HoldingRef())
	assert.Equal(t, e.HoldingRef(), LockKey(e.ID))

	_, err := New("alice", "alice", 500, "NGN", "", nil, now.Add(time.Hour), now)
	assert.ErrorIs(t, err, ErrSameParty)
	assert.ErrorIs(t, err, shared.ErrInvalidRequest)

	_, err = New("alice", "bob", 0, "NGN", "", nil, now.Add(time.Hour), now)
	assert.ErrorIs(t, err, shared.ErrInvalidAmount)

	_, err = New("alice", "bob", 10, "NGN", "", nil, now, now)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestEscrow_Release(t *testing.T) {
	t.Run("ReceiverReleases", func(t *testing.T) {
		e := newEscrow(t)
		require.NoError(t, e.Release("bob", now))
		assert.Equal(t, StatusCompleted, e.Status)
		require.NotNil(t, e.ClosedAt)
	})

	t.Run("OutsiderIsRejected", func(t *testing.T) {
		e := newEscrow(t)
		err := e.Release("mallory", now)
		assert.True(t, errors.Is(err, shared.ErrUnauthorized))
		assert.Equal(t, StatusPending, e.Status)
	})

	t.Run("SecondReleaseIsInvalid", func(t *testing.T) {
		e := newEscrow(t)
		require.NoError(t, e.Release("alice", now))
		assert.ErrorIs(t, e.Release("alice", now), shared.ErrInvalidState)
	})
}

func TestEscrow_RaiseDispute(t *testing.T) {
	e := newEscrow(t)

	assert.ErrorIs(t, e.RaiseDispute("bob", "", now), ErrEmptyReason)
	require.NoError(t, e.RaiseDispute("bob", "item not delivered", now))

	assert.Equal(t, StatusDisputed, e.Status)
	require.NotNil(t, e.Dispute)
	assert.Equal(t, "bob", e.Dispute.RaisedBy)
	assert.Equal(t, DisputeOpen, e.Dispute.Status)
	assert.ErrorIs(t, e.Release("bob", now), shared.ErrInvalidState)
	assert.ErrorIs(t, e.Cancel("alice", now), shared.ErrInvalidState)
}

func TestEscrow_Cancel(t *testing.T) {
	bySender := newEscrow(t)
	require.NoError(t, bySender.Cancel("alice", now))
	assert.Equal(t, StatusCancelled, bySender.Status)

	byReceiver := newEscrow(t)
	require.NoError(t, byReceiver.Cancel("bob", now))
	assert.Equal(t, StatusRefunded, byReceiver.Status)
}

func TestEscrow_IsExpired(t *testing.T) {
	e := newEscrow(t)
	assert.False(t, e.IsExpired(now))
	assert.True(t, e.IsExpired(now.Add(31*24*time.Hour)))
}

func TestEscrow_ReleaseAfterExpiry(t *testing.T) {
	e := newEscrow(t)
	later := now.Add(31 * 24 * time.Hour)

	err := e.Release("bob", later)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Equal(t, StatusPending, e.Status)

	require.NoError(t, e.Cancel("alice", later))
	assert.Equal(t, StatusCancelled, e.Status)
}
