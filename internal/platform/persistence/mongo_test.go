package persistence

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIndexedCollection struct {
	calls int
	err   error
}

func (s *stubIndexedCollection) EnsureIndexes(context.Context) error {
	s.calls++
	return s.err
}

func TestMongoDB_Prepare(t *testing.T) {
	db := &MongoDB{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	t.Run("AllCollections", func(t *testing.T) {
		history, other := &stubIndexedCollection{}, &stubIndexedCollection{}

		require.NoError(t, db.Prepare(context.Background(), history, other))
		assert.Equal(t, 1, history.calls)
		assert.Equal(t, 1, other.calls)
	})

	t.Run("StopsAtFirstFailure", func(t *testing.T) {
		boom := errors.New("index build failed")
		failing, after := &stubIndexedCollection{err: boom}, &stubIndexedCollection{}

		err := db.Prepare(context.Background(), failing, after)
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, after.calls)
	})
}
