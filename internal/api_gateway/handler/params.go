package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/api_gateway/middleware"
	"github.com/grymey-ledger/internal/domain/wallet"
)

// pathUUID parses the named path parameter, answering 400 when it is malformed
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondBadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// walletMode defaults to the real wallet
func walletMode(raw string) (wallet.Mode, bool) {
	if raw == "" {
		return wallet.ModeReal, true
	}
	mode := wallet.Mode(raw)
	return mode, mode.Valid()
}

func callerID(c *gin.Context) string {
	return middleware.GetUserID(c)
}

func correlationID(c *gin.Context) string {
	return middleware.GetCorrelationID(c)
}
