package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/card"
	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/domain/uow"
	"github.com/grymey-ledger/internal/domain/wallet"
	"github.com/grymey-ledger/internal/settlement/reference"
)

// PaymentServiceImpl covers the direct wallet flows: deposits, peer transfers,
// bill payments and virtual cards
type PaymentServiceImpl struct {
	settlement
	billFee int64
}

func NewPaymentService(deps Dependencies, billFee int64) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		settlement: newSettlement(deps, "payment_service"),
		billFee:    billFee,
	}
}

// Deposit credits money arriving from outside the ledger, opening the wallet if needed
func (s *PaymentServiceImpl) Deposit(ctx context.Context, userID string, amount int64, mode wallet.Mode) (*transaction.Transaction, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidRequest, wallet.ErrInvalidMode)
	}
	return s.transfer(ctx, []string{wallet.LockKey(userID)}, &transaction.TransferRequest{
		Type:       transaction.TypeDeposit,
		Prefix:     reference.PrefixDeposit,
		Currency:   s.currency,
		ReceiverID: userID,
		Ghost:      mode == wallet.ModeGhost,
		Legs: []transaction.Leg{
			{Account: transaction.ExternalAccount(transaction.SystemFunding), Delta: -amount, Role: transaction.RoleSource},
			{Account: transaction.WalletAccount(userID, mode), Delta: amount, Role: transaction.RoleReceiver, Create: true},
		},
	})
}

// Transfer moves amount between two existing wallets of the same mode
func (s *PaymentServiceImpl) Transfer(ctx context.Context, senderID, receiverID string, amount int64, mode wallet.Mode, note string) (*transaction.Transaction, error) {
	if senderID == receiverID {
		return nil, fmt.Errorf("%w: cannot transfer to yourself", shared.ErrInvalidRequest)
	}
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidRequest, wallet.ErrInvalidMode)
	}

	var metadata map[string]any
	if note != "" {
		metadata = map[string]any{"note": note}
	}
	return s.transfer(ctx, []string{wallet.LockKey(senderID), wallet.LockKey(receiverID)}, &transaction.TransferRequest{
		Type:       transaction.TypeTransfer,
		Prefix:     reference.PrefixTransfer,
		Currency:   s.currency,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Ghost:      mode == wallet.ModeGhost,
		Metadata:   metadata,
		Legs: []transaction.Leg{
			transaction.Debit(senderID, mode, amount),
			transaction.Credit(receiverID, mode, amount),
		},
	})
}

// PayBill debits amount plus the bill fee and pays the biller and the fee sink
func (s *PaymentServiceImpl) PayBill(ctx context.Context, userID, billerCode, customerRef string, amount int64) (*transaction.Transaction, error) {
	if billerCode == "" || customerRef == "" {
		return nil, fmt.Errorf("%w: biller and customer reference are required", shared.ErrInvalidRequest)
	}
	if err := checkAmount(amount); err != nil {
		return nil, err
	}

	legs := []transaction.Leg{
		transaction.Debit(userID, wallet.ModeReal, amount+s.billFee),
		{Account: transaction.BillerAccount(billerCode), Delta: amount, Role: transaction.RoleReceiver},
	}
	if s.billFee > 0 {
		legs = append(legs, transaction.Leg{Account: transaction.ExternalAccount(transaction.SystemFees), Delta: s.billFee, Role: transaction.RoleFee})
	}

	return s.transfer(ctx, []string{wallet.LockKey(userID)}, &transaction.TransferRequest{
		Type:     transaction.TypeBillPayment,
		Prefix:   reference.PrefixBill,
		Currency: s.currency,
		SenderID: userID,
		Amount:   amount,
		Metadata: map[string]any{"biller": billerCode, "customer_ref": customerRef, "fee": s.billFee},
		Legs:     legs,
	})
}

// checkAmount rejects non-positive amounts. The leg signs carry the direction,
// so a negative amount would reverse the flow.
func checkAmount(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", shared.ErrInvalidAmount)
	}
	return nil
}

func (s *PaymentServiceImpl) transfer(ctx context.Context, keys []string, request *transaction.TransferRequest) (*transaction.Transaction, error) {
	var txn *transaction.Transaction
	err := s.locked(ctx, keys, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		txn, err = s.engine.Transfer(ctx, repos, request)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *PaymentServiceImpl) IssueCard(ctx context.Context, userID string) (*card.VirtualCard, error) {
	c, err := card.New(userID, s.currency, s.now())
	if err != nil {
		return nil, err
	}
	if err = s.read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		return repos.Cards().Create(ctx, c)
	}); err != nil {
		return nil, fmt.Errorf("failed to issue card: %w", err)
	}

	s.log(ctx).Info("Card issued", "card_id", c.ID.String(), "user_id", userID)
	return c, nil
}

// FundCard moves amount from the owner's real wallet onto an active card
func (s *PaymentServiceImpl) FundCard(ctx context.Context, cardID uuid.UUID, userID string, amount int64) (*card.VirtualCard, error) {
	var result *card.VirtualCard
	err := s.locked(ctx, []string{card.LockKey(cardID), wallet.LockKey(userID)}, func(ctx context.Context, repos uow.Repositories) error {
		c, err := repos.Cards().Get(ctx, cardID)
		if err != nil {
			return err
		}
		if err := c.CheckOwner(userID); err != nil {
			return err
		}
		if err := c.CheckFundable(amount); err != nil {
			return err
		}

		if _, err := s.engine.Transfer(ctx, repos, &transaction.TransferRequest{
			Type:     transaction.TypeCardFunding,
			Prefix:   reference.PrefixCard,
			Currency: c.Currency,
			SenderID: userID,
			Metadata: map[string]any{"card_id": c.ID.String()},
			Legs: []transaction.Leg{
				transaction.Debit(userID, wallet.ModeReal, amount),
				{Account: transaction.HoldingAccount(c.HoldingRef()), Delta: amount, Role: transaction.RoleHold},
			},
		}); err != nil {
			return err
		}

		if err := c.Fund(amount, s.now()); err != nil {
			return err
		}
		if err := repos.Cards().Update(ctx, c); err != nil {
			return fmt.Errorf("failed to update card %s: %w", c.ID, err)
		}
		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("Card funded", "card_id", cardID.String(), "amount", amount, "bal", result.Balance)
	return result, nil
}

func (s *PaymentServiceImpl) FreezeCard(ctx context.Context, cardID uuid.UUID, userID string) (*card.VirtualCard, error) {
	var result *card.VirtualCard
	err := s.locked(ctx, []string{card.LockKey(cardID)}, func(ctx context.Context, repos uow.Repositories) error {
		c, err := repos.Cards().Get(ctx, cardID)
		if err != nil {
			return err
		}
		if err := c.CheckOwner(userID); err != nil {
			return err
		}
		if err := c.Freeze(s.now()); err != nil {
			return err
		}
		if err := repos.Cards().Update(ctx, c); err != nil {
			return fmt.Errorf("failed to update card %s: %w", c.ID, err)
		}
		result = c
		return nil
	})
	return result, err
}

func (s *PaymentServiceImpl) GetCard(ctx context.Context, cardID uuid.UUID, userID string) (*card.VirtualCard, error) {
	var c *card.VirtualCard
	err := s.read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		c, err = repos.Cards().Get(ctx, cardID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, card.NotFound(cardID)
	}
	return c, nil
}

func (s *PaymentServiceImpl) ListCards(ctx context.Context, userID string) ([]*card.VirtualCard, error) {
	var cards []*card.VirtualCard
	err := s.read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		cards, err = repos.Cards().ListByUser(ctx, userID)
		return err
	})
	return cards, err
}
