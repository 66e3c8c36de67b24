package handler

import (
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/grymey-ledger/internal/api_gateway/service"
	"github.com/grymey-ledger/internal/domain/split"
	settlement "github.com/grymey-ledger/internal/settlement/service"
	"github.com/shopspring/decimal"
)

// SplitHandler exposes split payments from one payer to many recipients
type SplitHandler struct {
	splitService service.SplitService
	logger       *slog.Logger
}

func NewSplitHandler(logger *slog.Logger, splitService service.SplitService) *SplitHandler {
	return &SplitHandler{
		splitService: splitService,
		logger:       logger,
	}
}

func (h *SplitHandler) Create(c *gin.Context) {
	var req CreateSplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	recipients, err := toRecipientInputs(req.Recipients)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	sp, err := h.splitService.Create(c.Request.Context(), settlement.CreateSplitInput{
		CreatorID:   callerID(c),
		Title:       req.Title,
		Description: req.Description,
		TotalAmount: req.TotalAmount,
		Recipients:  recipients,
	})
	if err != nil {
		RespondWithServiceError(c, h.logger, "create_split", err)
		return
	}

	RespondCreated(c, sp)
}

func (h *SplitHandler) Get(c *gin.Context) {
	splitID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	sp, err := h.splitService.Get(c.Request.Context(), splitID)
	if err != nil {
		RespondWithServiceError(c, h.logger, "get_split", err)
		return
	}

	RespondOK(c, sp)
}

func (h *SplitHandler) List(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	splits, err := h.splitService.ListForUser(c.Request.Context(), callerID(c), pagination.PerPage, pagination.Offset())
	if err != nil {
		RespondWithServiceError(c, h.logger, "list_splits", err)
		return
	}

	RespondOK(c, splits)
}

// Process pays every recipient from the caller's real wallet
func (h *SplitHandler) Process(c *gin.Context) {
	splitID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	sp, err := h.splitService.Process(c.Request.Context(), splitID, callerID(c))
	if err != nil {
		RespondWithServiceError(c, h.logger, "process_split", err)
		return
	}

	RespondOK(c, sp)
}

func (h *SplitHandler) Cancel(c *gin.Context) {
	splitID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	sp, err := h.splitService.Cancel(c.Request.Context(), splitID, callerID(c))
	if err != nil {
		RespondWithServiceError(c, h.logger, "cancel_split", err)
		return
	}

	RespondOK(c, sp)
}

func toRecipientInputs(requests []SplitRecipientRequest) ([]split.RecipientInput, error) {
	inputs := make([]split.RecipientInput, 0, len(requests))
	for _, r := range requests {
		switch {
		case r.Percentage != "" && r.Amount == 0:
			pct, err := decimal.NewFromString(r.Percentage)
			if err != nil {
				return nil, fmt.Errorf("invalid percentage for %s: %q", r.UserID, r.Percentage)
			}
			inputs = append(inputs, split.RecipientInput{UserID: r.UserID, Share: split.PercentageShare(pct)})
		case r.Percentage == "" && r.Amount > 0:
			inputs = append(inputs, split.RecipientInput{UserID: r.UserID, Share: split.AmountShare(r.Amount)})
		default:
			return nil, fmt.Errorf("recipient %s needs exactly one of amount and percentage", r.UserID)
		}
	}
	return inputs, nil
}
