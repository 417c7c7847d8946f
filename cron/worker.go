package cron

import (
	"context"
	"log"
	"time"

	"tsunagu/config"
	"tsunagu/services/faq"
	"tsunagu/services/kintone"
	"tsunagu/services/schedule"
	"tsunagu/services/tasks"
	"tsunagu/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

// Jobs bundles the services the background handlers dispatch into.
type Jobs struct {
	Syncer   *kintone.Syncer
	Faq      *faq.Service
	Schedule *schedule.Service
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// NewTaskClient returns an enqueue-side client for the task queue.
func NewTaskClient() *asynq.Client {
	return asynq.NewClient(redisOpts())
}

// InitWorker runs the async worker in background.
func InitWorker(jobs Jobs) {
	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeEventSync, func(ctx context.Context, _ *asynq.Task) error {
		return jobs.Syncer.Sync(ctx)
	})
	mux.HandleFunc(tasks.TypeFaqEmbed, func(ctx context.Context, _ *asynq.Task) error {
		_, err := jobs.Faq.BackfillEmbeddings(ctx)
		return err
	})
	mux.HandleFunc(tasks.TypeReminderSend, func(ctx context.Context, _ *asynq.Task) error {
		return jobs.Schedule.SendEventReminders(ctx)
	})
	mux.HandleFunc(tasks.TypeScheduleBroadcast, func(ctx context.Context, _ *asynq.Task) error {
		return jobs.Schedule.BroadcastMonthlySchedule(ctx)
	})
	mux.HandleFunc(tasks.TypeThankYouSend, func(ctx context.Context, _ *asynq.Task) error {
		return jobs.Schedule.SendThankYouMessages(ctx)
	})

	// Start Redis health monitor
	go monitorRedisConnection()

	// Start async worker with retry logic
	go func() {
		log.Println("[Worker] Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[Worker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[Worker] Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

// InitScheduler enqueues the recurring jobs on their cron schedules (JST).
func InitScheduler() {
	scheduler := asynq.NewScheduler(redisOpts(), &asynq.SchedulerOpts{
		Location: utils.JST,
	})

	entries := []struct {
		spec string
		task *asynq.Task
	}{
		{"0 3 * * *", tasks.NewEventSyncTask()},
		{"0 4 * * *", tasks.NewFaqEmbedTask()},
		{"0 9 1 * *", tasks.NewScheduleBroadcastTask()},
		{"0 18 * * *", tasks.NewReminderTask()},
		{"0 20 * * *", tasks.NewThankYouTask()},
	}
	for _, e := range entries {
		if _, err := scheduler.Register(e.spec, e.task); err != nil {
			log.Printf("[Scheduler] Failed to register %s: %v", e.task.Type(), err)
		}
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			log.Printf("[Scheduler] Stopped: %v", err)
		}
	}()
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[Worker] Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
