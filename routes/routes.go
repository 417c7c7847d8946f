package routes

import (
	"time"

	"tsunagu/handlers"
	"tsunagu/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterWebhookRoute registers the messaging platform callback endpoint.
func RegisterWebhookRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/webhook", middleware.VerifySignatureMiddleware(), hb.WebhookHandler)
}

// RegisterAdminRoutes sets up endpoints for operational job triggers.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.AdminTokenMiddleware())
		adminGroup.POST("/sync-events", hb.TriggerEventSyncHandler)
		adminGroup.POST("/embed-faqs", hb.TriggerFaqEmbedHandler)
		adminGroup.POST("/broadcast-schedule", hb.TriggerScheduleBroadcastHandler)
		adminGroup.POST("/send-reminders", hb.TriggerRemindersHandler)
		adminGroup.POST("/send-thanks", hb.TriggerThankYouHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Line-Signature", "X-Admin-Token"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterWebhookRoute(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}
