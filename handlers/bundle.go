package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all HTTP handler functions for route registration.
type HandlerBundle struct {
	// Webhook endpoint.
	WebhookHandler gin.HandlerFunc

	// Admin job triggers.
	TriggerEventSyncHandler         gin.HandlerFunc
	TriggerFaqEmbedHandler          gin.HandlerFunc
	TriggerScheduleBroadcastHandler gin.HandlerFunc
	TriggerRemindersHandler         gin.HandlerFunc
	TriggerThankYouHandler          gin.HandlerFunc

	// Health endpoint.
	HealthHandler gin.HandlerFunc
}
