package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/grymey-ledger/internal/domain/wallet"
)

// errorMapping ties a domain error kind to its HTTP status and response code
type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters where one error could match several kinds
var errorMappings = []errorMapping{
	{shared.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{shared.ErrInsufficientFunds, http.StatusConflict, "INSUFFICIENT_FUNDS"},
	{shared.ErrDuplicateApproval, http.StatusConflict, "DUPLICATE_APPROVAL"},
	{shared.ErrInvalidState, http.StatusConflict, "INVALID_STATE"},
	{shared.ErrConcurrentUpdate, http.StatusConflict, "CONCURRENT_UPDATE"},
	{wallet.ErrLedgerMismatch, http.StatusConflict, "LEDGER_MISMATCH"},
	{shared.ErrUnauthorized, http.StatusForbidden, "FORBIDDEN"},
	{shared.ErrInvalidSplit, http.StatusBadRequest, "INVALID_SPLIT"},
	{shared.ErrInvalidAmount, http.StatusBadRequest, "INVALID_AMOUNT"},
	{shared.ErrInvalidCurrency, http.StatusBadRequest, "INVALID_CURRENCY"},
	{shared.ErrInvalidRequest, http.StatusBadRequest, "BAD_REQUEST"},
	{wallet.ErrInvalidMode, http.StatusBadRequest, "BAD_REQUEST"},
	{shared.ErrLockUnavailable, http.StatusServiceUnavailable, "LOCK_UNAVAILABLE"},
}

// RespondWithServiceError maps err onto the HTTP error taxonomy. Unknown errors are
// logged and reported as 500 without leaking their text.
func RespondWithServiceError(c *gin.Context, logger *slog.Logger, operation string, err error) {
	var concurrent wallet.ErrConcurrentModification
	if errors.As(err, &concurrent) {
		logger.Warn("Concurrent wallet update", "operation", operation, "error", err)
		RespondWithError(c, http.StatusConflict, "CONCURRENT_UPDATE", err.Error())
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			logger.Info("Request rejected", "operation", operation, "code", m.code, "error", err)
			if m.status == http.StatusServiceUnavailable {
				c.Header("Retry-After", "1")
			}
			RespondWithError(c, m.status, m.code, err.Error())
			return
		}
	}

	logger.Error("Request failed", "operation", operation, "error", err)
	RespondInternalError(c)
}
