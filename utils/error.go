package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body every error reply carries.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// ErrorHandler recovers panics escaping the handler chain. Webhook event
// panics are contained per event before reaching here; this is the last
// resort for the admin and health surfaces.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				GetLogger().Error("Recovered from unhandled panic",
					zap.String("path", c.FullPath()), zap.Any("panic", r))
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Error:  "Internal Server Error",
					Detail: "The request could not be completed.",
				})
			}
		}()
		c.Next()
	}
}

// JSONError writes a structured error body and logs it at warn level.
func JSONError(c *gin.Context, status int, message string, detail string) {
	GetLogger().Warn(message, zap.Int("status", status), zap.String("detail", detail))
	c.JSON(status, ErrorResponse{Error: message, Detail: detail})
}
