package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grymey-ledger/internal/api_gateway/service"
)

// HistoryHandler serves the projected transaction history
type HistoryHandler struct {
	historyService service.HistoryService
	logger         *slog.Logger
}

func NewHistoryHandler(logger *slog.Logger, historyService service.HistoryService) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
		logger:         logger,
	}
}

func (h *HistoryHandler) List(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := h.historyService.ListForUser(c.Request.Context(), callerID(c), pagination.Page, pagination.PerPage)
	if err != nil {
		RespondWithServiceError(c, h.logger, "list_history", err)
		return
	}

	response := make([]HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		response = append(response, mapHistoryEntryToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, response, pagination.Page, pagination.PerPage, int(total))
}

func (h *HistoryHandler) Get(c *gin.Context) {
	reference := c.Param("reference")
	if reference == "" {
		RespondBadRequest(c, "Invalid reference")
		return
	}

	entry, err := h.historyService.GetEntry(c.Request.Context(), reference, callerID(c))
	if err != nil {
		RespondWithServiceError(c, h.logger, "get_history_entry", err)
		return
	}

	RespondOK(c, mapHistoryEntryToResponse(entry))
}
