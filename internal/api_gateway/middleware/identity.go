package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// UserIDHeader carries the caller identity established by the edge proxy
	UserIDHeader = "X-User-ID"

	// UserIDKey is the key used to store the caller id in the context
	UserIDKey = "user_id"
)

// UserID rejects requests without a caller identity. Authentication itself
// happens before the gateway; this only lifts the asserted id into the context.
func UserID() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "missing " + UserIDHeader + " header",
				},
			})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// GetUserID retrieves the caller id stored by UserID
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
