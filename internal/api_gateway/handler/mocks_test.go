package handler

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
	"github.com/stretchr/testify/mock"
)

type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) GetWallet(ctx context.Context, ownerID string, mode wallet.Mode) (*wallet.Wallet, error) {
	args := m.Called(ctx, ownerID, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockWalletService) ListEntries(ctx context.Context, ownerID string, mode wallet.Mode, limit, offset int) ([]wallet.LedgerEntry, error) {
	args := m.Called(ctx, ownerID, mode, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]wallet.LedgerEntry), args.Error(1)
}

func (m *MockWalletService) VerifyWallet(ctx context.Context, ownerID string, mode wallet.Mode) error {
	args := m.Called(ctx, ownerID, mode)
	return args.Error(0)
}

func (m *MockWalletService) GetTransaction(ctx context.Context, reference, callerID string) (*transaction.Transaction, error) {
	args := m.Called(ctx, reference, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockWalletService) ListTransactions(ctx context.Context, userID string, filter transaction.Filter) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Deposit(ctx context.Context, userID string, amount int64, mode wallet.Mode) (*transaction.Transaction, error) {
	args := m.Called(ctx, userID, amount, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockPaymentService) Transfer(ctx context.Context, senderID, receiverID string, amount int64, mode wallet.Mode, note string) (*transaction.Transaction, error) {
	args := m.Called(ctx, senderID, receiverID, amount, mode, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockPaymentService) PayBill(ctx context.Context, userID, billerCode, customerRef string, amount int64) (*transaction.Transaction, error) {
	args := m.Called(ctx, userID, billerCode, customerRef, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockPaymentService) IssueCard(ctx context.Context, userID string) (*card.VirtualCard, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*card.VirtualCard), args.Error(1)
}

func (m *MockPaymentService) FundCard(ctx context.Context, cardID uuid.UUID, userID string, amount int64) (*card.VirtualCard, error) {
	args := m.Called(ctx, cardID, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*card.VirtualCard), args.Error(1)
}

func (m *MockPaymentService) FreezeCard(ctx context.Context, cardID uuid.UUID, userID string) (*card.VirtualCard, error) {
	args := m.Called(ctx, cardID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*card.VirtualCard), args.Error(1)
}

func (m *MockPaymentService) GetCard(ctx context.Context, cardID uuid.UUID, userID string) (*card.VirtualCard, error) {
	args := m.Called(ctx, cardID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*card.VirtualCard), args.Error(1)
}

func (m *MockPaymentService) ListCards(ctx context.Context, userID string) ([]*card.VirtualCard, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*card.VirtualCard), args.Error(1)
}

type MockEscrowService struct {
	mock.Mock
}

func (m *MockEscrowService) Create(ctx context.Context, input settlement.CreateEscrowInput) (*escrow.Escrow, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrow.Escrow), args.Error(1)
}

func (m *MockEscrowService) Release(ctx context.Context, escrowID uuid.UUID, callerID string) (*escrow.Escrow, error) {
	args := m.Called(ctx, escrowID, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrow.Escrow), args.Error(1)
}

func (m *MockEscrowService) Cancel(ctx context.Context, escrowID uuid.UUID, callerID, reason string) (*escrow.Escrow, error) {
	args := m.Called(ctx, escrowID, callerID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrow.Escrow), args.Error(1)
}

func (m *MockEscrowService) RaiseDispute(ctx context.Context, escrowID uuid.UUID, callerID, reason string) (*escrow.Escrow, error) {
	args := m.Called(ctx, escrowID, callerID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrow.Escrow), args.Error(1)
}

func (m *MockEscrowService) Get(ctx context.Context, escrowID uuid.UUID, callerID string) (*escrow.Escrow, error) {
	args := m.Called(ctx, escrowID, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrow.Escrow), args.Error(1)
}

func (m *MockEscrowService) ListForUser(ctx context.Context, userID string, limit, offset int) ([]*escrow.Escrow, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*escrow.Escrow), args.Error(1)
}

type MockSplitService struct {
	mock.Mock
}

func (m *MockSplitService) Create(ctx context.Context, input settlement.CreateSplitInput) (*split.SplitPayment, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*split.SplitPayment), args.Error(1)
}

func (m *MockSplitService) Process(ctx context.Context, splitID uuid.UUID, payerID string) (*split.SplitPayment, error) {
	args := m.Called(ctx, splitID, payerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*split.SplitPayment), args.Error(1)
}

func (m *MockSplitService) Cancel(ctx context.Context, splitID uuid.UUID, callerID string) (*split.SplitPayment, error) {
	args := m.Called(ctx, splitID, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*split.SplitPayment), args.Error(1)
}

func (m *MockSplitService) Get(ctx context.Context, splitID uuid.UUID) (*split.SplitPayment, error) {
	args := m.Called(ctx, splitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*split.SplitPayment), args.Error(1)
}

func (m *MockSplitService) ListForUser(ctx context.Context, userID string, limit, offset int) ([]*split.SplitPayment, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*split.SplitPayment), args.Error(1)
}

type MockCircleService struct {
	mock.Mock
}

func (m *MockCircleService) Create(ctx context.Context, creatorID, name, description string, rules *circle.WithdrawalRules) (*circle.Circle, error) {
	args := m.Called(ctx, creatorID, name, description, rules)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*circle.Circle), args.Error(1)
}

func (m *MockCircleService) Invite(ctx context.Context, circleID uuid.UUID, inviterID, userID string, role circle.Role) (*circle.Circle, error) {
	args := m.Called(ctx, circleID, inviterID, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*circle.Circle), args.Error(1)
}

func (m *MockCircleService) AcceptInvitation(ctx context.Context, circleID uuid.UUID, userID string) (*circle.Circle, error) {
	args := m.Called(ctx, circleID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*circle.Circle), args.Error(1)
}

func (m *MockCircleService) SetLocked(ctx context.Context, circleID uuid.UUID, adminID string, locked bool) (*circle.Circle, error) {
	args := m.Called(ctx, circleID, adminID, locked)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*circle.Circle), args.Error(1)
}

func (m *MockCircleService) Contribute(ctx context.Context, circleID uuid.UUID, userID string, amount int64) (*circle.Circle, error) {
	args := m.Called(ctx, circleID, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*circle.Circle), args.Error(1)
}

func (m *MockCircleService) Withdraw(ctx context.Context, circleID uuid.UUID, userID string, amount int64, reason string) (*settlement.WithdrawalResult, error) {
	args := m.Called(ctx, circleID, userID, amount, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.WithdrawalResult), args.Error(1)
}

func (m *MockCircleService) ApproveWithdrawal(ctx context.Context, circleID, withdrawalID uuid.UUID, approverID string) (*settlement.WithdrawalResult, error) {
	args := m.Called(ctx, circleID, withdrawalID, approverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.WithdrawalResult), args.Error(1)
}

func (m *MockCircleService) RejectWithdrawal(ctx context.Context, circleID, withdrawalID uuid.UUID, rejecterID, reason string) (*circle.Circle, error) {
	args := m.Called(ctx, circleID, withdrawalID, rejecterID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*circle.Circle), args.Error(1)
}

func (m *MockCircleService) CancelWithdrawal(ctx context.Context, circleID, withdrawalID uuid.UUID, callerID string) (*circle.Circle, error) {
	args := m.Called(ctx, circleID, withdrawalID, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*circle.Circle), args.Error(1)
}

func (m *MockCircleService) Get(ctx context.Context, circleID uuid.UUID, callerID string) (*circle.Circle, error) {
	args := m.Called(ctx, circleID, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*circle.Circle), args.Error(1)
}

func (m *MockCircleService) ListForMember(ctx context.Context, userID string) ([]*circle.Circle, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*circle.Circle), args.Error(1)
}

type MockJarService struct {
	mock.Mock
}

func (m *MockJarService) Create(ctx context.Context, input settlement.CreateJarInput) (*jar.MoneyJar, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jar.MoneyJar), args.Error(1)
}

func (m *MockJarService) Fund(ctx context.Context, jarID uuid.UUID, userID string, amount int64) (*jar.MoneyJar, error) {
	args := m.Called(ctx, jarID, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jar.MoneyJar), args.Error(1)
}

func (m *MockJarService) Withdraw(ctx context.Context, jarID uuid.UUID, userID string, amount int64) (*settlement.JarWithdrawal, error) {
	args := m.Called(ctx, jarID, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.JarWithdrawal), args.Error(1)
}

func (m *MockJarService) Lock(ctx context.Context, jarID uuid.UUID, userID string) (*jar.MoneyJar, error) {
	args := m.Called(ctx, jarID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jar.MoneyJar), args.Error(1)
}

func (m *MockJarService) Unlock(ctx context.Context, jarID uuid.UUID, userID string) (*jar.MoneyJar, error) {
	args := m.Called(ctx, jarID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jar.MoneyJar), args.Error(1)
}

func (m *MockJarService) Get(ctx context.Context, jarID uuid.UUID, userID string) (*jar.MoneyJar, error) {
	args := m.Called(ctx, jarID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jar.MoneyJar), args.Error(1)
}

func (m *MockJarService) ListForUser(ctx context.Context, userID string) ([]*jar.MoneyJar, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*jar.MoneyJar), args.Error(1)
}

type MockHistoryService struct {
	mock.Mock
}

func (m *MockHistoryService) GetEntry(ctx context.Context, reference, callerID string) (*history.Entry, error) {
	args := m.Called(ctx, reference, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*history.Entry), args.Error(1)
}

func (m *MockHistoryService) ListForUser(ctx context.Context, userID string, page, perPage int) ([]*history.Entry, int64, error) {
	args := m.Called(ctx, userID, page, perPage)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*history.Entry), args.Get(1).(int64), args.Error(2)
}
