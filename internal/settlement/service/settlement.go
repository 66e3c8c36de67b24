package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/grymey-ledger/internal/domain/uow"
	"github.com/grymey-ledger/internal/logger"
)

// Dependencies shared by every settlement service
type Dependencies struct {
	UnitOfWork uow.UnitOfWork
	Locks      LockManager
	Engine     TransferEngine
	Currency   string
	Logger     *slog.Logger
}

// settlement runs operations under their resource locks, in one unit of work
type settlement struct {
	unitOfWork uow.UnitOfWork
	locks      LockManager
	engine     TransferEngine
	currency   string
	logger     *slog.Logger
	now        func() time.Time
}

func newSettlement(deps Dependencies, component string) settlement {
	return settlement{
		unitOfWork: deps.UnitOfWork,
		locks:      deps.Locks,
		engine:     deps.Engine,
		currency:   deps.Currency,
		logger:     deps.Logger.With("component", component),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// locked acquires keys, then runs fn in a unit of work. Locks are released after
// the unit of work has committed or rolled back.
func (s *settlement) locked(ctx context.Context, keys []string, fn func(ctx context.Context, repos uow.Repositories) error) error {
	ctx, release, err := s.locks.Acquire(ctx, keys...)
	if err != nil {
		s.log(ctx).Warn("Failed to acquire locks", "keys", keys, "error", err)
		return err
	}
	defer release()

	return s.unitOfWork.Execute(ctx, fn)
}

// read runs fn in a unit of work without taking locks
func (s *settlement) read(ctx context.Context, fn func(ctx context.Context, repos uow.Repositories) error) error {
	return s.unitOfWork.Execute(ctx, fn)
}

func (s *settlement) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, s.logger)
}
