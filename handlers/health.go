package handlers

import (
	"net/http"

	"tsunagu/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the latest dependency snapshot from the monitor.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if !status.Mongo || status.ConfigError != "" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
