package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/grymey-ledger/internal/api_gateway/service"
	settlement "github.com/grymey-ledger/internal/settlement/service"
)

// EscrowHandler exposes conditional payments held until release
type EscrowHandler struct {
	escrowService service.EscrowService
	logger        *slog.Logger
}

func NewEscrowHandler(logger *slog.Logger, escrowService service.EscrowService) *EscrowHandler {
	return &EscrowHandler{
		escrowService: escrowService,
		logger:        logger,
	}
}

// Create holds the amount from the caller's real wallet
func (h *EscrowHandler) Create(c *gin.Context) {
	var req CreateEscrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	e, err := h.escrowService.Create(c.Request.Context(), settlement.CreateEscrowInput{
		SenderID:    callerID(c),
		ReceiverID:  req.ReceiverID,
		Amount:      req.Amount,
		Description: req.Description,
		Conditions:  req.Conditions,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		RespondWithServiceError(c, h.logger, "create_escrow", err)
		return
	}

	RespondCreated(c, e)
}

func (h *EscrowHandler) Get(c *gin.Context) {
	escrowID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	e, err := h.escrowService.Get(c.Request.Context(), escrowID, callerID(c))
	if err != nil {
		RespondWithServiceError(c, h.logger, "get_escrow", err)
		return
	}

	RespondOK(c, e)
}

func (h *EscrowHandler) List(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	escrows, err := h.escrowService.ListForUser(c.Request.Context(), callerID(c), pagination.PerPage, pagination.Offset())
	if err != nil {
		RespondWithServiceError(c, h.logger, "list_escrows", err)
		return
	}

	RespondOK(c, escrows)
}

func (h *EscrowHandler) Release(c *gin.Context) {
	escrowID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	e, err := h.escrowService.Release(c.Request.Context(), escrowID, callerID(c))
	if err != nil {
		RespondWithServiceError(c, h.logger, "release_escrow", err)
		return
	}

	RespondOK(c, e)
}

func (h *EscrowHandler) Cancel(c *gin.Context) {
	escrowID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	e, err := h.escrowService.Cancel(c.Request.Context(), escrowID, callerID(c), req.Reason)
	if err != nil {
		RespondWithServiceError(c, h.logger, "cancel_escrow", err)
		return
	}

	RespondOK(c, e)
}

func (h *EscrowHandler) Dispute(c *gin.Context) {
	escrowID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req DisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	e, err := h.escrowService.RaiseDispute(c.Request.Context(), escrowID, callerID(c), req.Reason)
	if err != nil {
		RespondWithServiceError(c, h.logger, "dispute_escrow", err)
		return
	}

	RespondOK(c, e)
}
