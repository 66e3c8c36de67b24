package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/grymey-ledger/internal/config"
	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/domain/uow"
	"github.com/grymey-ledger/internal/domain/wallet"
	"github.com/grymey-ledger/internal/logger"
	"github.com/grymey-ledger/internal/settlement/lock"
	"github.com/grymey-ledger/internal/settlement/service"
)

// ErrLimitExceeded is returned when a transfer breaks a per-transaction or rolling limit
var ErrLimitExceeded = fmt.Errorf("%w: transfer limit exceeded", shared.ErrInvalidAmount)

// amountLimited types are checked against the per-transaction minimum and maximum
var amountLimited = map[transaction.Type]bool{
	transaction.TypeDeposit:     true,
	transaction.TypeTransfer:    true,
	transaction.TypeBillPayment: true,
	transaction.TypeCardFunding: true,
}

// rollingLimited types count against a sender's daily and weekly totals
var rollingLimited = []transaction.Type{
	transaction.TypeTransfer,
	transaction.TypeBillPayment,
	transaction.TypeCardFunding,
	transaction.TypeEscrow,
	transaction.TypeSplitPayment,
}

type LegValidatorImpl struct {
	limits config.LimitsConfig
	now    func() time.Time
	logger *slog.Logger
}

func NewLegValidator(limits config.LimitsConfig, logger *slog.Logger) service.LegValidator {
	return &LegValidatorImpl{
		limits: limits,
		now:    time.Now,
		logger: logger,
	}
}

// Validate checks the request shape, its legs and the sender's limits
func (v *LegValidatorImpl) Validate(ctx context.Context, repos uow.Repositories, request *transaction.TransferRequest) error {
	log := logger.FromContext(ctx, v.logger)

	if request.Type == "" {
		return fmt.Errorf("%w: transfer type is required", shared.ErrInvalidRequest)
	}
	if request.Currency != v.limits.Currency {
		log.Warn("Currency mismatch", "type", request.Type, "req_curr", request.Currency, "ledger_curr", v.limits.Currency)
		return fmt.Errorf("%w: %s", shared.ErrInvalidCurrency, request.Currency)
	}

	if err := v.ValidateLegs(ctx, repos, request.Legs); err != nil {
		return err
	}
	if request.Amount < 0 || request.HeadlineAmount() <= 0 {
		return fmt.Errorf("%w: amount must be positive", shared.ErrInvalidAmount)
	}

	if request.Ghost {
		return nil
	}
	return v.checkLimits(ctx, repos, request)
}

// ValidateLegs checks balance, lock ownership and coverage of a leg set
func (v *LegValidatorImpl) ValidateLegs(ctx context.Context, repos uow.Repositories, legs []transaction.Leg) error {
	log := logger.FromContext(ctx, v.logger)

	if len(legs) == 0 {
		return fmt.Errorf("%w: a transfer needs at least one leg", shared.ErrInvalidRequest)
	}

	var sum int64
	debits := make(map[transaction.Account]int64)
	for _, leg := range legs {
		if leg.Delta == 0 {
			return fmt.Errorf("%w: leg %s has a zero delta", shared.ErrInvalidAmount, leg.Account)
		}
		sum += leg.Delta

		if leg.Account.Kind != transaction.AccountWallet {
			continue
		}
		if leg.Account.OwnerID == "" || !leg.Account.Mode.Valid() {
			return fmt.Errorf("%w: malformed wallet leg %s", shared.ErrInvalidRequest, leg.Account)
		}
		if !lock.Holds(ctx, wallet.LockKey(leg.Account.OwnerID)) {
			log.Error("Transfer leg touches an unlocked wallet", "owner_id", leg.Account.OwnerID)
			return fmt.Errorf("%w: %s", shared.ErrLockNotHeld, wallet.LockKey(leg.Account.OwnerID))
		}
		if leg.Delta < 0 {
			debits[leg.Account] += -leg.Delta
		}
	}
	if sum != 0 {
		return fmt.Errorf("%w: legs sum to %d", shared.ErrInvalidAmount, sum)
	}

	for _, leg := range legs {
		if leg.Account.Kind != transaction.AccountWallet {
			continue
		}
		w, err := repos.Wallets().Get(ctx, leg.Account.OwnerID, leg.Account.Mode)
		if err != nil {
			if errors.Is(err, wallet.ErrWalletNotFound{}) && leg.Delta > 0 && leg.Create {
				continue
			}
			log.Warn("Wallet for transfer leg unavailable", "account", leg.Account.String(), "error", err)
			return err
		}
		if need := debits[leg.Account]; need > 0 && !w.CanDebit(need) {
			log.Warn("Insufficient funds", "account", leg.Account.String(), "bal", w.Balance, "needs", need)
			return fmt.Errorf("%w: %s has %d, needs %d", shared.ErrInsufficientFunds, leg.Account, w.Balance, need)
		}
	}

	return nil
}

func (v *LegValidatorImpl) checkLimits(ctx context.Context, repos uow.Repositories, request *transaction.TransferRequest) error {
	log := logger.FromContext(ctx, v.logger)
	amount := request.HeadlineAmount()

	if amountLimited[request.Type] {
		if amount < v.limits.MinTransferAmount {
			log.Warn("Transfer below minimum", "type", request.Type, "amount", amount, "min", v.limits.MinTransferAmount)
			return fmt.Errorf("%w: %d is below the minimum of %d", ErrLimitExceeded, amount, v.limits.MinTransferAmount)
		}
		if amount > v.limits.MaxTransferAmount {
			log.Warn("Transfer above maximum", "type", request.Type, "amount", amount, "max", v.limits.MaxTransferAmount)
			return fmt.Errorf("%w: %d is above the maximum of %d", ErrLimitExceeded, amount, v.limits.MaxTransferAmount)
		}
	}

	if request.SenderID == "" || !isRollingLimited(request.Type) {
		return nil
	}

	now := v.now()
	windows := []struct {
		name  string
		since time.Time
		limit int64
	}{
		{"daily", now.Add(-24 * time.Hour), v.limits.DailyTransferLimit},
		{"weekly", now.Add(-7 * 24 * time.Hour), v.limits.WeeklyTransferLimit},
	}
	for _, w := range windows {
		spent, err := repos.Transactions().SumOutgoing(ctx, request.SenderID, rollingLimited, w.since)
		if err != nil {
			log.Error("Failed to sum outgoing transfers", "sender_id", request.SenderID, "window", w.name, "error", err)
			return fmt.Errorf("failed to check %s limit for %s: %w", w.name, request.SenderID, err)
		}
		if spent+amount > w.limit {
			log.Warn("Rolling limit exceeded", "sender_id", request.SenderID, "window", w.name, "spent", spent, "amount", amount, "limit", w.limit)
			return fmt.Errorf("%w: %s limit of %d reached", ErrLimitExceeded, w.name, w.limit)
		}
	}
	return nil
}

func isRollingLimited(t transaction.Type) bool {
	for _, limited := range rollingLimited {
		if limited == t {
			return true
		}
	}
	return false
}
