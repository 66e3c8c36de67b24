package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/grymey-ledger/internal/api_gateway/service"
	settlement "github.com/grymey-ledger/internal/settlement/service"
	"github.com/shopspring/decimal"
)

// JarHandler exposes personal savings jars
type JarHandler struct {
	jarService service.JarService
	logger     *slog.Logger
}

func NewJarHandler(logger *slog.Logger, jarService service.JarService) *JarHandler {
	return &JarHandler{
		jarService: jarService,
		logger:     logger,
	}
}

func (h *JarHandler) Create(c *gin.Context) {
	var req CreateJarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	input := settlement.CreateJarInput{
		UserID:       callerID(c),
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
		MaturityDate: req.MaturityDate,
	}
	if req.PenaltyRate != nil {
		rate, err := decimal.NewFromString(*req.PenaltyRate)
		if err != nil {
			RespondBadRequest(c, "Invalid penalty_rate")
			return
		}
		input.PenaltyRate = &rate
	}

	j, err := h.jarService.Create(c.Request.Context(), input)
	if err != nil {
		RespondWithServiceError(c, h.logger, "create_jar", err)
		return
	}

	RespondCreated(c, j)
}

func (h *JarHandler) Get(c *gin.Context) {
	jarID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	j, err := h.jarService.Get(c.Request.Context(), jarID, callerID(c))
	if err != nil {
		RespondWithServiceError(c, h.logger, "get_jar", err)
		return
	}

	RespondOK(c, j)
}

func (h *JarHandler) List(c *gin.Context) {
	jars, err := h.jarService.ListForUser(c.Request.Context(), callerID(c))
	if err != nil {
		RespondWithServiceError(c, h.logger, "list_jars", err)
		return
	}

	RespondOK(c, jars)
}

func (h *JarHandler) Fund(c *gin.Context) {
	jarID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	j, err := h.jarService.Fund(c.Request.Context(), jarID, callerID(c), req.Amount)
	if err != nil {
		RespondWithServiceError(c, h.logger, "fund_jar", err)
		return
	}

	RespondOK(c, j)
}

// Withdraw moves money back to the owner's wallet, less any lock penalty
func (h *JarHandler) Withdraw(c *gin.Context) {
	jarID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.jarService.Withdraw(c.Request.Context(), jarID, callerID(c), req.Amount)
	if err != nil {
		RespondWithServiceError(c, h.logger, "withdraw_jar", err)
		return
	}

	RespondOK(c, JarWithdrawalResponse{
		Jar:          result.Jar,
		Penalty:      result.Penalty,
		Credited:     result.Credited,
		Transactions: mapTransactionsToResponse(result.Transactions),
	})
}

func (h *JarHandler) Lock(c *gin.Context) {
	jarID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	j, err := h.jarService.Lock(c.Request.Context(), jarID, callerID(c))
	if err != nil {
		RespondWithServiceError(c, h.logger, "lock_jar", err)
		return
	}

	RespondOK(c, j)
}

func (h *JarHandler) Unlock(c *gin.Context) {
	jarID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	j, err := h.jarService.Unlock(c.Request.Context(), jarID, callerID(c))
	if err != nil {
		RespondWithServiceError(c, h.logger, "unlock_jar", err)
		return
	}

	RespondOK(c, j)
}
