package handler

import (
	"time"

	"github.com/grymey-ledger/internal/domain/history"
	"github.com/grymey-ledger/internal/domain/jar"
	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/domain/wallet"
)

// DepositRequest funds the caller's wallet from outside the system
type DepositRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Mode   string `json:"mode" binding:"omitempty,oneof=real ghost"`
}

type TransferRequest struct {
	ReceiverID string `json:"receiver_id" binding:"required"`
	Amount     int64  `json:"amount" binding:"required,gt=0"`
	Mode       string `json:"mode" binding:"omitempty,oneof=real ghost"`
	Note       string `json:"note" binding:"max=280"`
}

type PayBillRequest struct {
	BillerCode  string `json:"biller_code" binding:"required"`
	CustomerRef string `json:"customer_ref" binding:"required"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
}

// AmountRequest is the body of every fund, contribute and withdraw call
type AmountRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type CreateEscrowRequest struct {
	ReceiverID  string     `json:"receiver_id" binding:"required"`
	Amount      int64      `json:"amount" binding:"required,gt=0"`
	Description string     `json:"description"`
	Conditions  []string   `json:"conditions"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// ReasonRequest carries an optional free-text reason
type ReasonRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// DisputeRequest requires a reason
type DisputeRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// SplitRecipientRequest sets exactly one of Amount and Percentage
type SplitRecipientRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	Amount     int64  `json:"amount" binding:"min=0"`
	Percentage string `json:"percentage"`
}

type CreateSplitRequest struct {
	Title       string                  `json:"title" binding:"required"`
	Description string                  `json:"description"`
	TotalAmount int64                   `json:"total_amount" binding:"required,gt=0"`
	Recipients  []SplitRecipientRequest `json:"recipients" binding:"required,min=1,dive"`
}

type WithdrawalRulesRequest struct {
	RequiresApproval bool     `json:"requires_approval"`
	MinApprovals     int      `json:"min_approvals" binding:"min=0"`
	AllowedApprovers []string `json:"allowed_approvers"`
}

type CreateCircleRequest struct {
	Name        string                  `json:"name" binding:"required"`
	Description string                  `json:"description"`
	Rules       *WithdrawalRulesRequest `json:"withdrawal_rules"`
}

type InviteRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"omitempty,oneof=admin member"`
}

type CircleWithdrawalRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Reason string `json:"reason" binding:"max=500"`
}

type CreateJarRequest struct {
	Name         string     `json:"name" binding:"required"`
	TargetAmount int64      `json:"target_amount" binding:"min=0"`
	MaturityDate *time.Time `json:"maturity_date"`
	PenaltyRate  *string    `json:"penalty_rate"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// TransactionFilterParams narrows the transaction list
type TransactionFilterParams struct {
	PaginationParams
	Type   string `form:"type"`
	Status string `form:"status" binding:"omitempty,oneof=pending completed failed reversed"`
}

// WalletResponse omits the embedded ledger; entries have their own endpoint
type WalletResponse struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Mode      string `json:"mode"`
	Balance   int64  `json:"balance"`
	Currency  string `json:"currency"`
	Version   int    `json:"version"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type VerifyWalletResponse struct {
	OwnerID    string `json:"owner_id"`
	Mode       string `json:"mode"`
	Consistent bool   `json:"consistent"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	TransactionID string         `json:"transaction_id"`
	Reference     string         `json:"reference"`
	SenderID      string         `json:"sender_id,omitempty"`
	ReceiverID    string         `json:"receiver_id,omitempty"`
	Type          string         `json:"type"`
	Amount        int64          `json:"amount"`
	Currency      string         `json:"currency"`
	Status        string         `json:"status"`
	Ghost         bool           `json:"ghost"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	FailureReason string         `json:"failure_reason,omitempty"`
	CreatedAt     string         `json:"created_at"`
	CompletedAt   string         `json:"completed_at,omitempty"`
}

type JarWithdrawalResponse struct {
	Jar          *jar.MoneyJar         `json:"jar"`
	Penalty      int64                 `json:"penalty"`
	Credited     int64                 `json:"credited"`
	Transactions []TransactionResponse `json:"transactions"`
}

// HistoryEntryResponse is one user's view of a projected transaction
type HistoryEntryResponse struct {
	TransactionID string `json:"transaction_id"`
	Reference     string `json:"reference"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Ghost         bool   `json:"ghost"`
	Counterparty  string `json:"counterparty,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}

func mapWalletToResponse(w *wallet.Wallet) WalletResponse {
	return WalletResponse{
		ID:        w.ID.String(),
		OwnerID:   w.OwnerID,
		Mode:      string(w.Mode),
		Balance:   w.Balance,
		Currency:  w.Currency,
		Version:   w.Version,
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
		UpdatedAt: w.UpdatedAt.Format(time.RFC3339),
	}
}

// mapTransactionToResponse maps a transaction to a response DTO
func mapTransactionToResponse(txn *transaction.Transaction) TransactionResponse {
	response := TransactionResponse{
		TransactionID: txn.ID.String(),
		Reference:     txn.Reference,
		SenderID:      txn.SenderID,
		ReceiverID:    txn.ReceiverID,
		Type:          string(txn.Type),
		Amount:        txn.Amount,
		Currency:      txn.Currency,
		Status:        string(txn.Status),
		Ghost:         txn.Ghost,
		Metadata:      txn.Metadata,
		FailureReason: txn.FailureReason,
		CreatedAt:     txn.CreatedAt.Format(time.RFC3339),
	}

	if txn.CompletedAt != nil {
		response.CompletedAt = txn.CompletedAt.Format(time.RFC3339)
	}

	return response
}

func mapTransactionsToResponse(txns []*transaction.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		responses = append(responses, mapTransactionToResponse(txn))
	}
	return responses
}

func mapHistoryEntryToResponse(entry *history.Entry) HistoryEntryResponse {
	return HistoryEntryResponse{
		TransactionID: entry.TransactionID.String(),
		Reference:     entry.Reference,
		Type:          string(entry.Type),
		Status:        string(entry.Status),
		Amount:        entry.Amount,
		Currency:      entry.Currency,
		Ghost:         entry.Ghost,
		Counterparty:  entry.Counterparty,
		FailureReason: entry.FailureReason,
		OccurredAt:    entry.OccurredAt.Format(time.RFC3339),
	}
}
