package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/logger"
)

const (
	// CorrelationIDHeader is echoed on every response and copied into outbox events
	CorrelationIDHeader = "X-Correlation-ID"

	// CorrelationIDKey is the gin context key holding the correlation id
	CorrelationIDKey = "correlation_id"

	maxCorrelationIDLength = 128
)

// CorrelationID tags the request with the caller's correlation id, or a fresh
// UUID when the header is absent or unusable, and puts it on the request context.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID, ok := sanitizeCorrelationID(c.GetHeader(CorrelationIDHeader))
		if !ok {
			correlationID = uuid.NewString()
		}

		c.Header(CorrelationIDHeader, correlationID)
		c.Set(CorrelationIDKey, correlationID)
		c.Request = c.Request.WithContext(logger.WithCorrelationID(c.Request.Context(), correlationID))

		c.Next()
	}
}

// sanitizeCorrelationID accepts short printable ASCII ids only; anything else
// would end up verbatim in logs and the history projection
func sanitizeCorrelationID(raw string) (string, bool) {
	id := strings.TrimSpace(raw)
	if id == "" || len(id) > maxCorrelationIDLength {
		return "", false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return "", false
		}
	}
	return id, true
}

func GetCorrelationID(c *gin.Context) string {
	return c.GetString(CorrelationIDKey)
}
