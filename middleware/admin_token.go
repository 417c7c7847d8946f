package middleware

import (
	"crypto/subtle"
	"net/http"

	"tsunagu/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminTokenMiddleware guards operational endpoints behind the static
// ADMIN_TOKEN shared secret.
func AdminTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		configured := config.AppConfig.AdminToken
		if configured == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin endpoints are disabled"})
			return
		}

		token := c.GetHeader("X-Admin-Token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(configured)) != 1 {
			zap.L().Warn("Rejected admin request with bad token", zap.String("ip", getClientIP(c)))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid admin token"})
			return
		}

		c.Next()
	}
}
