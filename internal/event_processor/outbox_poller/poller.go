package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/grymey-ledger/internal/config"
	"github.com/grymey-ledger/internal/domain/outbox"
	"github.com/grymey-ledger/internal/domain/shared"
)

// Poller relays pending outbox messages in creation order
type Poller struct {
	outboxRepo       outbox.Repository
	publisher        EventPublisher
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	publisher EventPublisher,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		publisher:        publisher,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start begins polling until context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting Outbox Poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox Poller stopping due to context cancellation.")
			return
		case <-ticker.C:
			if err := p.processPendingMessages(ctx); err != nil {
				p.logger.Error("Error during batch processing of pending outbox messages", "error", err)
			}
		}
	}
}

func (p *Poller) processPendingMessages(ctx context.Context) error {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	if len(messages) == 0 {
		p.logger.Debug("No pending outbox messages found.")
		return nil
	}

	p.logger.Info("Fetched pending outbox messages", "count", len(messages))

	for _, msg := range messages {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := p.publisher.PublishEvent(ctx, msg)
		if err == nil {
			continue
		}

		status, errRecord := p.outboxRepo.RecordFailure(ctx, msg.ID, p.maxRetryAttempts)
		if errRecord != nil {
			p.logger.Error("Failed to record relay failure", "outbox_id", msg.ID, "error", errRecord)
			continue
		}
		if status == shared.OutboxStatusFailedToPublish {
			p.logger.Warn("Outbox message abandoned after max attempts",
				"outbox_id", msg.ID, "reference", msg.Reference, "event_status", msg.EventStatus, "error", err,
			)
		} else {
			p.logger.Error("Failed to relay outbox message, will retry",
				"outbox_id", msg.ID, "reference", msg.Reference, "attempts", msg.Attempts+1, "error", err,
			)
		}
	}
	return nil
}
