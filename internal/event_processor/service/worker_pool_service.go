package service

import (
	"context"
	"log/slog"

	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolProjectionService bounds how many projections run at once.
// Callers block until their own event has been projected.
type WorkerPoolProjectionService struct {
	baseService ProjectionService
	pool        *ants.Pool
	logger      *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolProjectionService(
	baseService ProjectionService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProjectionService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolProjectionService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

// Project submits the event to the worker pool and waits for the result
func (s *WorkerPoolProjectionService) Project(ctx context.Context, event *transaction.Event) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	resultChan := make(chan error, 1)

	// Copy so the worker never shares the caller's event
	eventCopy := *event

	err := s.pool.Submit(func() {
		resultChan <- s.baseService.Project(ctx, &eventCopy)
	})
	if err != nil {
		logger.Error("Failed to submit event to worker pool",
			"transaction_id", event.TransactionID.String(),
			"error", err,
		)
		return err
	}

	select {
	case err := <-resultChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolProjectionService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

func (s *WorkerPoolProjectionService) Running() int {
	return s.pool.Running()
}

func (s *WorkerPoolProjectionService) Capacity() int {
	return s.pool.Cap()
}
