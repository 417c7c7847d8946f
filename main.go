// File: tsunagu/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tsunagu/config"
	"tsunagu/cron"
	"tsunagu/database"
	conversationRepo "tsunagu/database/repository/conversation"
	eventRepo "tsunagu/database/repository/event"
	faqRepo "tsunagu/database/repository/faq"
	memberRepo "tsunagu/database/repository/member"
	participationRepo "tsunagu/database/repository/participation"
	"tsunagu/handlers"
	"tsunagu/middleware"
	"tsunagu/routes"
	"tsunagu/services/faq"
	"tsunagu/services/kintone"
	"tsunagu/services/line"
	openaisvc "tsunagu/services/openai"
	"tsunagu/services/reservation"
	"tsunagu/services/router"
	"tsunagu/services/schedule"
	"tsunagu/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitQueueClient()

	// Create the Gin router.
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.ErrorHandler())
	engine.Use(gin.Logger())
	engine.Use(middleware.RateLimitMiddleware())

	// repositories.
	events := eventRepo.NewMongoEventRepo()
	faqs := faqRepo.NewMongoFaqRepo()
	logs := conversationRepo.NewMongoConversationRepo()
	participations := participationRepo.NewMongoParticipationRepo()
	members := memberRepo.NewMongoMemberRepo()

	// services.
	lineClient := line.NewClient(config.AppConfig.ChannelAccessToken)
	aiClient := openaisvc.NewClient(config.AppConfig.OpenAIAPIKey)

	locker := reservation.NewRedisLocker(utils.GetCacheClient())
	reservationService := reservation.NewService(events, participations, locker)

	assembler := faq.NewContextAssembler(logs,
		config.AppConfig.MaxConversationPairs, config.AppConfig.MaxContextHours)
	faqService := faq.NewService(faqs, logs, assembler, aiClient,
		config.AppConfig.SimilarityThreshold)

	syncer := kintone.NewSyncer(kintone.NewClient(), events)
	scheduleService := schedule.NewService(lineClient, events, members)

	intentRouter := router.NewRouter(lineClient, reservationService, faqService,
		events, members, logs)

	// Background worker and scheduler.
	cron.InitWorker(cron.Jobs{
		Syncer:   syncer,
		Faq:      faqService,
		Schedule: scheduleService,
	})
	cron.InitScheduler()

	taskClient := cron.NewTaskClient()
	defer taskClient.Close()

	webhookHandler := handlers.NewWebhookHandler(intentRouter)
	adminHandler := handlers.NewAdminHandler(taskClient)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		WebhookHandler: webhookHandler.Handle,

		TriggerEventSyncHandler:         adminHandler.TriggerEventSyncHandler,
		TriggerFaqEmbedHandler:          adminHandler.TriggerFaqEmbedHandler,
		TriggerScheduleBroadcastHandler: adminHandler.TriggerScheduleBroadcastHandler,
		TriggerRemindersHandler:         adminHandler.TriggerRemindersHandler,
		TriggerThankYouHandler:          adminHandler.TriggerThankYouHandler,

		HealthHandler: handlers.HealthHandler,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(engine, handlerBundle)

	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetCacheClient(), utils.GetQueueClient()},
		database.MongoClient,
	)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: engine,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
