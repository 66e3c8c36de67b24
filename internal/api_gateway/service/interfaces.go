package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/card"
	"github.com/grymey-ledger/internal/domain/circle"
	"github.com/grymey-ledger/internal/domain/escrow"
	"github.com/grymey-ledger/internal/domain/history"
	"github.com/grymey-ledger/internal/domain/jar"
	"github.com/grymey-ledger/internal/domain/split"
	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/domain/wallet"
	settlement "github.com/grymey-ledger/internal/settlement/service"
)

// WalletService exposes balances, ledger entries and transaction lookups
type WalletService interface {
	GetWallet(ctx context.Context, ownerID string, mode wallet.Mode) (*wallet.Wallet, error)
	ListEntries(ctx context.Context, ownerID string, mode wallet.Mode, limit, offset int) ([]wallet.LedgerEntry, error)
	// VerifyWallet returns an error wrapping wallet.ErrLedgerMismatch when the balance has drifted
	VerifyWallet(ctx context.Context, ownerID string, mode wallet.Mode) error
	GetTransaction(ctx context.Context, reference, callerID string) (*transaction.Transaction, error)
	ListTransactions(ctx context.Context, userID string, filter transaction.Filter) ([]*transaction.Transaction, error)
}

// PaymentService covers deposits, transfers, bills and virtual cards
type PaymentService interface {
	Deposit(ctx context.Context, userID string, amount int64, mode wallet.Mode) (*transaction.Transaction, error)
	Transfer(ctx context.Context, senderID, receiverID string, amount int64, mode wallet.Mode, note string) (*transaction.Transaction, error)
	PayBill(ctx context.Context, userID, billerCode, customerRef string, amount int64) (*transaction.Transaction, error)
	IssueCard(ctx context.Context, userID string) (*card.VirtualCard, error)
	FundCard(ctx context.Context, cardID uuid.UUID, userID string, amount int64) (*card.VirtualCard, error)
	FreezeCard(ctx context.Context, cardID uuid.UUID, userID string) (*card.VirtualCard, error)
	GetCard(ctx context.Context, cardID uuid.UUID, userID string) (*card.VirtualCard, error)
	ListCards(ctx context.Context, userID string) ([]*card.VirtualCard, error)
}

type EscrowService interface {
	Create(ctx context.Context, input settlement.CreateEscrowInput) (*escrow.Escrow, error)
	Release(ctx context.Context, escrowID uuid.UUID, callerID string) (*escrow.Escrow, error)
	Cancel(ctx context.Context, escrowID uuid.UUID, callerID, reason string) (*escrow.Escrow, error)
	RaiseDispute(ctx context.Context, escrowID uuid.UUID, callerID, reason string) (*escrow.Escrow, error)
	Get(ctx context.Context, escrowID uuid.UUID, callerID string) (*escrow.Escrow, error)
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]*escrow.Escrow, error)
}

type SplitService interface {
	Create(ctx context.Context, input settlement.CreateSplitInput) (*split.SplitPayment, error)
	Process(ctx context.Context, splitID uuid.UUID, payerID string) (*split.SplitPayment, error)
	Cancel(ctx context.Context, splitID uuid.UUID, callerID string) (*split.SplitPayment, error)
	Get(ctx context.Context, splitID uuid.UUID) (*split.SplitPayment, error)
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]*split.SplitPayment, error)
}

type CircleService interface {
	Create(ctx context.Context, creatorID, name, description string, rules *circle.WithdrawalRules) (*circle.Circle, error)
	Invite(ctx context.Context, circleID uuid.UUID, inviterID, userID string, role circle.Role) (*circle.Circle, error)
	AcceptInvitation(ctx context.Context, circleID uuid.UUID, userID string) (*circle.Circle, error)
	SetLocked(ctx context.Context, circleID uuid.UUID, adminID string, locked bool) (*circle.Circle, error)
	Contribute(ctx context.Context, circleID uuid.UUID, userID string, amount int64) (*circle.Circle, error)
	Withdraw(ctx context.Context, circleID uuid.UUID, userID string, amount int64, reason string) (*settlement.WithdrawalResult, error)
	ApproveWithdrawal(ctx context.Context, circleID, withdrawalID uuid.UUID, approverID string) (*settlement.WithdrawalResult, error)
	RejectWithdrawal(ctx context.Context, circleID, withdrawalID uuid.UUID, rejecterID, reason string) (*circle.Circle, error)
	CancelWithdrawal(ctx context.Context, circleID, withdrawalID uuid.UUID, callerID string) (*circle.Circle, error)
	Get(ctx context.Context, circleID uuid.UUID, callerID string) (*circle.Circle, error)
	ListForMember(ctx context.Context, userID string) ([]*circle.Circle, error)
}

type JarService interface {
	Create(ctx context.Context, input settlement.CreateJarInput) (*jar.MoneyJar, error)
	Fund(ctx context.Context, jarID uuid.UUID, userID string, amount int64) (*jar.MoneyJar, error)
	Withdraw(ctx context.Context, jarID uuid.UUID, userID string, amount int64) (*settlement.JarWithdrawal, error)
	Lock(ctx context.Context, jarID uuid.UUID, userID string) (*jar.MoneyJar, error)
	Unlock(ctx context.Context, jarID uuid.UUID, userID string) (*jar.MoneyJar, error)
	Get(ctx context.Context, jarID uuid.UUID, userID string) (*jar.MoneyJar, error)
	ListForUser(ctx context.Context, userID string) ([]*jar.MoneyJar, error)
}

// HistoryService reads the projected transaction history
type HistoryService interface {
	// GetEntry returns callerID's view of the transaction with the given reference
	GetEntry(ctx context.Context, reference, callerID string) (*history.Entry, error)

	// ListForUser returns one page of history and the total number of entries
	ListForUser(ctx context.Context, userID string, page, perPage int) ([]*history.Entry, int64, error)
}
