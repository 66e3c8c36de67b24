package components

import (
	"log/slog"

	"github.com/grymey-ledger/internal/config"
	"github.com/grymey-ledger/internal/domain/uow"
	"github.com/grymey-ledger/internal/settlement/lock"
	"github.com/grymey-ledger/internal/settlement/reference"
	"github.com/grymey-ledger/internal/settlement/service"
)

// Services groups every settlement service sharing one engine and lock manager
type Services struct {
	Wallets  *service.WalletServiceImpl
	Payments *service.PaymentServiceImpl
	Escrows  *service.EscrowServiceImpl
	Splits   *service.SplitServiceImpl
	Circles  *service.CircleServiceImpl
	Jars     *service.JarServiceImpl
}

// CreateSettlementServices wires the transfer engine and its components over
// unitOfWork and builds the services on top of it.
func CreateSettlementServices(
	unitOfWork uow.UnitOfWork,
	cfg *config.Config,
	entitlements service.EntitlementChecker,
	logger *slog.Logger,
) *Services {
	references := reference.NewGenerator()
	locks := lock.NewManager(cfg.Lock.MaxAttempts, cfg.Lock.RetryDelay, logger.With("component", "lock_manager"))

	ledger := NewLedgerStore(cfg.Limits.Currency, logger.With("component", "ledger_store"))
	validator := NewLegValidator(cfg.Limits, logger.With("component", "leg_validator"))
	outboxManager := NewOutboxManager(logger.With("component", "outbox_manager"))
	failureRecorder := NewFailureRecorder(unitOfWork, outboxManager, references, logger.With("component", "failure_recorder"))

	engine := NewTransferEngine(
		ledger,
		validator,
		outboxManager,
		failureRecorder,
		references,
		logger.With("component", "transfer_engine"),
	)

	deps := service.Dependencies{
		UnitOfWork: unitOfWork,
		Locks:      locks,
		Engine:     engine,
		Currency:   cfg.Limits.Currency,
		Logger:     logger,
	}

	logger.Info("Created settlement services",
		"currency", cfg.Limits.Currency,
		"lock_attempts", cfg.Lock.MaxAttempts,
		"lock_retry_delay", cfg.Lock.RetryDelay)

	return &Services{
		Wallets:  service.NewWalletService(deps),
		Payments: service.NewPaymentService(deps, cfg.Settlement.BillPaymentFee),
		Escrows:  service.NewEscrowService(deps, cfg.Settlement.EscrowDefaultExpiry),
		Splits:   service.NewSplitService(deps, ledger),
		Circles:  service.NewCircleService(deps),
		Jars:     service.NewJarService(deps, cfg.Settlement.JarDefaultPenaltyRate, entitlements),
	}
}
