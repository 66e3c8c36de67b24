package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grymey-ledger/internal/api_gateway/service"
	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/domain/wallet"
)

// WalletHandler serves the caller's wallets, ledger entries and transactions
type WalletHandler struct {
	walletService service.WalletService
	logger        *slog.Logger
}

func NewWalletHandler(logger *slog.Logger, walletService service.WalletService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		logger:        logger,
	}
}

// Get returns the caller's wallet in the requested mode
func (h *WalletHandler) Get(c *gin.Context) {
	mode, ok := walletMode(c.Param("mode"))
	if !ok {
		RespondBadRequest(c, "Invalid wallet mode")
		return
	}

	w, err := h.walletService.GetWallet(c.Request.Context(), callerID(c), mode)
	if err != nil {
		RespondWithServiceError(c, h.logger, "get_wallet", err)
		return
	}

	RespondOK(c, mapWalletToResponse(w))
}

// ListEntries returns the newest ledger entries first
func (h *WalletHandler) ListEntries(c *gin.Context) {
	mode, ok := walletMode(c.Param("mode"))
	if !ok {
		RespondBadRequest(c, "Invalid wallet mode")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, err := h.walletService.ListEntries(c.Request.Context(), callerID(c), mode, pagination.PerPage, pagination.Offset())
	if err != nil {
		RespondWithServiceError(c, h.logger, "list_entries", err)
		return
	}

	RespondOK(c, entries)
}

// Verify recomputes the wallet balance from its ledger
func (h *WalletHandler) Verify(c *gin.Context) {
	mode, ok := walletMode(c.Param("mode"))
	if !ok {
		RespondBadRequest(c, "Invalid wallet mode")
		return
	}

	userID := callerID(c)
	err := h.walletService.VerifyWallet(c.Request.Context(), userID, mode)
	if err != nil && !errors.Is(err, wallet.ErrLedgerMismatch) {
		RespondWithServiceError(c, h.logger, "verify_wallet", err)
		return
	}

	if err != nil {
		h.logger.Error("Wallet balance does not match its ledger", "owner_id", userID, "mode", mode, "error", err)
	}

	RespondOK(c, VerifyWalletResponse{
		OwnerID:    userID,
		Mode:       string(mode),
		Consistent: err == nil,
	})
}

// GetTransaction looks up a transaction the caller took part in
func (h *WalletHandler) GetTransaction(c *gin.Context) {
	txn, err := h.walletService.GetTransaction(c.Request.Context(), c.Param("reference"), callerID(c))
	if err != nil {
		RespondWithServiceError(c, h.logger, "get_transaction", err)
		return
	}

	RespondOK(c, mapTransactionToResponse(txn))
}

// ListTransactions pages through the caller's transactions, newest first
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	var params TransactionFilterParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters")
		return
	}

	txns, err := h.walletService.ListTransactions(c.Request.Context(), callerID(c), transaction.Filter{
		Type:   transaction.Type(params.Type),
		Status: transaction.Status(params.Status),
		Limit:  params.PerPage,
		Offset: params.Offset(),
	})
	if err != nil {
		RespondWithServiceError(c, h.logger, "list_transactions", err)
		return
	}

	c.JSON(http.StatusOK, &Response{
		Data:          mapTransactionsToResponse(txns),
		CorrelationID: correlationID(c),
		Meta:          &MetaInfo{Page: params.Page, PerPage: params.PerPage},
	})
}
