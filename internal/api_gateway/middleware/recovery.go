package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery turns a panicking handler into a 500. A panic inside a settlement call
// rolls back its unit of work before reaching here, so the caller only needs the
// correlation id to chase it in the logs.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			correlationID := GetCorrelationID(c)
			logger.Error("Panic recovered",
				"error", fmt.Sprint(r),
				"stack", string(debug.Stack()),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"user_id", GetUserID(c),
				"correlation_id", correlationID,
			)

			// a handler that already streamed a status cannot be given a new one
			if c.Writer.Written() {
				c.Abort()
				return
			}

			body := gin.H{
				"error": gin.H{
					"code":    "INTERNAL_SERVER_ERROR",
					"message": "An internal server error occurred",
				},
			}
			if correlationID != "" {
				body["correlation_id"] = correlationID
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, body)
		}()

		c.Next()
	}
}
