package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/grymey-ledger/internal/api_gateway/service"
)

// PaymentHandler handles deposits, transfers, bill payments and virtual cards
type PaymentHandler struct {
	paymentService service.PaymentService
	logger         *slog.Logger
}

func NewPaymentHandler(logger *slog.Logger, paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

func (h *PaymentHandler) Deposit(c *gin.Context) {
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	mode, _ := walletMode(req.Mode)

	txn, err := h.paymentService.Deposit(c.Request.Context(), callerID(c), req.Amount, mode)
	if err != nil {
		RespondWithServiceError(c, h.logger, "deposit", err)
		return
	}

	RespondCreated(c, mapTransactionToResponse(txn))
}

func (h *PaymentHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	mode, _ := walletMode(req.Mode)

	txn, err := h.paymentService.Transfer(c.Request.Context(), callerID(c), req.ReceiverID, req.Amount, mode, req.Note)
	if err != nil {
		RespondWithServiceError(c, h.logger, "transfer", err)
		return
	}

	RespondCreated(c, mapTransactionToResponse(txn))
}

func (h *PaymentHandler) PayBill(c *gin.Context) {
	var req PayBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	txn, err := h.paymentService.PayBill(c.Request.Context(), callerID(c), req.BillerCode, req.CustomerRef, req.Amount)
	if err != nil {
		RespondWithServiceError(c, h.logger, "pay_bill", err)
		return
	}

	RespondCreated(c, mapTransactionToResponse(txn))
}

func (h *PaymentHandler) IssueCard(c *gin.Context) {
	vc, err := h.paymentService.IssueCard(c.Request.Context(), callerID(c))
	if err != nil {
		RespondWithServiceError(c, h.logger, "issue_card", err)
		return
	}

	RespondCreated(c, vc)
}

func (h *PaymentHandler) GetCard(c *gin.Context) {
	cardID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	vc, err := h.paymentService.GetCard(c.Request.Context(), cardID, callerID(c))
	if err != nil {
		RespondWithServiceError(c, h.logger, "get_card", err)
		return
	}

	RespondOK(c, vc)
}

func (h *PaymentHandler) ListCards(c *gin.Context) {
	cards, err := h.paymentService.ListCards(c.Request.Context(), callerID(c))
	if err != nil {
		RespondWithServiceError(c, h.logger, "list_cards", err)
		return
	}

	RespondOK(c, cards)
}

func (h *PaymentHandler) FundCard(c *gin.Context) {
	cardID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	vc, err := h.paymentService.FundCard(c.Request.Context(), cardID, callerID(c), req.Amount)
	if err != nil {
		RespondWithServiceError(c, h.logger, "fund_card", err)
		return
	}

	RespondOK(c, vc)
}

func (h *PaymentHandler) FreezeCard(c *gin.Context) {
	cardID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	vc, err := h.paymentService.FreezeCard(c.Request.Context(), cardID, callerID(c))
	if err != nil {
		RespondWithServiceError(c, h.logger, "freeze_card", err)
		return
	}

	RespondOK(c, vc)
}
