package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/grymey-ledger/internal/api_gateway/service"
	"github.com/grymey-ledger/internal/domain/circle"
	settlement "github.com/grymey-ledger/internal/settlement/service"
)

// CircleHandler exposes pooled group savings and their withdrawals
type CircleHandler struct {
	circleService service.CircleService
	logger        *slog.Logger
}

func NewCircleHandler(logger *slog.Logger, circleService service.CircleService) *CircleHandler {
	return &CircleHandler{
		circleService: circleService,
		logger:        logger,
	}
}

// WithdrawalResponse reports where a withdrawal stands after a request or approval
type WithdrawalResponse struct {
	Circle           *circle.Circle    `json:"circle"`
	Withdrawal       circle.Withdrawal `json:"withdrawal"`
	RequiresApproval bool              `json:"requires_approval"`
	Approvals        int               `json:"approvals"`
}

func mapWithdrawalResult(result *settlement.WithdrawalResult) WithdrawalResponse {
	return WithdrawalResponse{
		Circle:           result.Circle,
		Withdrawal:       result.Withdrawal,
		RequiresApproval: result.RequiresApproval,
		Approvals:        result.Approvals,
	}
}

func (h *CircleHandler) Create(c *gin.Context) {
	var req CreateCircleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var rules *circle.WithdrawalRules
	if req.Rules != nil {
		rules = &circle.WithdrawalRules{
			RequiresApproval: req.Rules.RequiresApproval,
			MinApprovals:     req.Rules.MinApprovals,
			AllowedApprovers: req.Rules.AllowedApprovers,
		}
	}

	ci, err := h.circleService.Create(c.Request.Context(), callerID(c), req.Name, req.Description, rules)
	if err != nil {
		RespondWithServiceError(c, h.logger, "create_circle", err)
		return
	}

	RespondCreated(c, ci)
}

func (h *CircleHandler) Get(c *gin.Context) {
	circleID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	ci, err := h.circleService.Get(c.Request.Context(), circleID, callerID(c))
	if err != nil {
		RespondWithServiceError(c, h.logger, "get_circle", err)
		return
	}

	RespondOK(c, ci)
}

func (h *CircleHandler) List(c *gin.Context) {
	circles, err := h.circleService.ListForMember(c.Request.Context(), callerID(c))
	if err != nil {
		RespondWithServiceError(c, h.logger, "list_circles", err)
		return
	}

	RespondOK(c, circles)
}

func (h *CircleHandler) Invite(c *gin.Context) {
	circleID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ci, err := h.circleService.Invite(c.Request.Context(), circleID, callerID(c), req.UserID, circle.Role(req.Role))
	if err != nil {
		RespondWithServiceError(c, h.logger, "invite_member", err)
		return
	}

	RespondOK(c, ci)
}

func (h *CircleHandler) Accept(c *gin.Context) {
	circleID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	ci, err := h.circleService.AcceptInvitation(c.Request.Context(), circleID, callerID(c))
	if err != nil {
		RespondWithServiceError(c, h.logger, "accept_invitation", err)
		return
	}

	RespondOK(c, ci)
}

func (h *CircleHandler) Lock(c *gin.Context) {
	h.setLocked(c, true)
}

func (h *CircleHandler) Unlock(c *gin.Context) {
	h.setLocked(c, false)
}

func (h *CircleHandler) setLocked(c *gin.Context, locked bool) {
	circleID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	ci, err := h.circleService.SetLocked(c.Request.Context(), circleID, callerID(c), locked)
	if err != nil {
		RespondWithServiceError(c, h.logger, "set_circle_locked", err)
		return
	}

	RespondOK(c, ci)
}

func (h *CircleHandler) Contribute(c *gin.Context) {
	circleID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ci, err := h.circleService.Contribute(c.Request.Context(), circleID, callerID(c), req.Amount)
	if err != nil {
		RespondWithServiceError(c, h.logger, "contribute", err)
		return
	}

	RespondOK(c, ci)
}

// Withdraw pays out at once when no approval is required, otherwise opens a request
func (h *CircleHandler) Withdraw(c *gin.Context) {
	circleID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req CircleWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.circleService.Withdraw(c.Request.Context(), circleID, callerID(c), req.Amount, req.Reason)
	if err != nil {
		RespondWithServiceError(c, h.logger, "request_withdrawal", err)
		return
	}

	if result.RequiresApproval {
		RespondAccepted(c, mapWithdrawalResult(result))
		return
	}
	RespondOK(c, mapWithdrawalResult(result))
}

func (h *CircleHandler) ApproveWithdrawal(c *gin.Context) {
	circleID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	withdrawalID, ok := pathUUID(c, "withdrawal_id")
	if !ok {
		return
	}

	result, err := h.circleService.ApproveWithdrawal(c.Request.Context(), circleID, withdrawalID, callerID(c))
	if err != nil {
		RespondWithServiceError(c, h.logger, "approve_withdrawal", err)
		return
	}

	RespondOK(c, mapWithdrawalResult(result))
}

func (h *CircleHandler) RejectWithdrawal(c *gin.Context) {
	circleID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	withdrawalID, ok := pathUUID(c, "withdrawal_id")
	if !ok {
		return
	}

	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ci, err := h.circleService.RejectWithdrawal(c.Request.Context(), circleID, withdrawalID, callerID(c), req.Reason)
	if err != nil {
		RespondWithServiceError(c, h.logger, "reject_withdrawal", err)
		return
	}

	RespondOK(c, ci)
}

func (h *CircleHandler) CancelWithdrawal(c *gin.Context) {
	circleID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	withdrawalID, ok := pathUUID(c, "withdrawal_id")
	if !ok {
		return
	}

	ci, err := h.circleService.CancelWithdrawal(c.Request.Context(), circleID, withdrawalID, callerID(c))
	if err != nil {
		RespondWithServiceError(c, h.logger, "cancel_withdrawal", err)
		return
	}

	RespondOK(c, ci)
}
