package handlers

import (
	"net/http"

	"tsunagu/models"
	"tsunagu/services/router"
	"tsunagu/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookHandler receives messaging platform callbacks and feeds each event
// through the intent router.
type WebhookHandler struct {
	Router *router.Router
}

func NewWebhookHandler(r *router.Router) *WebhookHandler {
	return &WebhookHandler{Router: r}
}

// Handle processes one webhook delivery. The platform retries on non-2xx, so
// per-event failures are contained and acknowledged rather than propagated.
func (h *WebhookHandler) Handle(c *gin.Context) {
	logger := utils.GetLogger()

	var req models.WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Rejected malformed webhook payload", zap.Error(err))
		utils.JSONError(c, http.StatusBadRequest, "Invalid webhook payload", err.Error())
		return
	}

	// A body without an events array is not a delivery at all; an empty
	// array is a valid verification ping.
	if req.Events == nil {
		logger.Warn("Rejected webhook payload without events array")
		utils.JSONError(c, http.StatusBadRequest, "Invalid webhook payload", "missing events array")
		return
	}
	if len(req.Events) == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "no events"})
		return
	}

	for i := range req.Events {
		h.dispatch(c, &req.Events[i])
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// dispatch isolates one event so a panic in it cannot block the rest of the
// delivery batch.
func (h *WebhookHandler) dispatch(c *gin.Context, event *models.InboundEvent) {
	defer func() {
		if r := recover(); r != nil {
			utils.GetLogger().Error("Recovered from panic while handling event",
				zap.String("type", event.Type), zap.Any("panic", r))
		}
	}()
	h.Router.HandleEvent(c.Request.Context(), event)
}
