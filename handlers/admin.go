package handlers

import (
	"net/http"

	"tsunagu/services/tasks"
	"tsunagu/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// AdminHandler exposes manual triggers for the recurring background jobs.
// Each endpoint enqueues the corresponding task; the worker does the work.
type AdminHandler struct {
	Queue *asynq.Client
}

func NewAdminHandler(queue *asynq.Client) *AdminHandler {
	return &AdminHandler{Queue: queue}
}

func (h *AdminHandler) enqueue(c *gin.Context, task *asynq.Task) {
	info, err := h.Queue.EnqueueContext(c.Request.Context(), task)
	if err != nil {
		utils.GetLogger().Error("Failed to enqueue task",
			zap.String("type", task.Type()), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to enqueue task", task.Type())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "queued", "task": task.Type(), "id": info.ID})
}

func (h *AdminHandler) TriggerEventSyncHandler(c *gin.Context) {
	h.enqueue(c, tasks.NewEventSyncTask())
}

func (h *AdminHandler) TriggerFaqEmbedHandler(c *gin.Context) {
	h.enqueue(c, tasks.NewFaqEmbedTask())
}

func (h *AdminHandler) TriggerScheduleBroadcastHandler(c *gin.Context) {
	h.enqueue(c, tasks.NewScheduleBroadcastTask())
}

func (h *AdminHandler) TriggerRemindersHandler(c *gin.Context) {
	h.enqueue(c, tasks.NewReminderTask())
}

func (h *AdminHandler) TriggerThankYouHandler(c *gin.Context) {
	h.enqueue(c, tasks.NewThankYouTask())
}
