package components

import (
	"log/slog"

	"github.com/grymey-ledger/internal/config"
	"github.com/grymey-ledger/internal/domain/history"
	"github.com/grymey-ledger/internal/domain/outbox"
	"github.com/grymey-ledger/internal/event_processor/outbox_poller"
	"github.com/grymey-ledger/internal/event_processor/service"
	"github.com/grymey-ledger/internal/platform/messaging/producers"
)

// CreateProjectionService wraps the history projection in a worker pool sized by cfg.
func CreateProjectionService(
	historyRepo history.Repository,
	logger *slog.Logger,
	cfg *config.Config,
) service.ProjectionService {
	baseService := service.NewProjectionService(historyRepo, logger.With("component", "projection"))

	workerPoolService, err := service.NewWorkerPoolProjectionService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool projection service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}

// CreateOutboxPoller wires the relay from the outbox table to the event topic
func CreateOutboxPoller(
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
	cfg *config.Config,
) *outbox_poller.Poller {
	publisher := outbox_poller.NewEventPublisher(outboxRepo, producer, logger.With("component", "event_publisher"))
	return outbox_poller.NewPoller(&cfg.Outbox, outboxRepo, publisher, logger.With("component", "outbox_poller"))
}
