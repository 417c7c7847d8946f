package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"

	"tsunagu/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VerifySignatureMiddleware validates the X-Line-Signature header against an
// HMAC-SHA256 digest of the raw request body. The body is restored so that
// downstream handlers can still bind it.
func VerifySignatureMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := zap.L()

		secret := config.AppConfig.ChannelSecret
		if secret == "" {
			// Without a configured secret there is nothing to verify against.
			logger.Warn("Channel secret not configured, skipping signature verification")
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		signature := c.GetHeader("X-Line-Signature")
		if signature == "" {
			logger.Warn("Webhook request missing signature header", zap.String("ip", getClientIP(c)))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing signature"})
			return
		}

		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

		if !hmac.Equal([]byte(signature), []byte(expected)) {
			logger.Warn("Webhook signature mismatch", zap.String("ip", getClientIP(c)))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
			return
		}

		c.Next()
	}
}
