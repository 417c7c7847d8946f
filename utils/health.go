package utils

import (
	"context"
	"sync"
	"time"

	"tsunagu/config"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Mongo       bool      `json:"mongo"`
	Redis       []bool    `json:"redis"`
	ConfigError string    `json:"configError,omitempty"`
	CheckedAt   time.Time `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	mu            sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	mu.RLock()
	defer mu.RUnlock()
	return currentHealth
}

// StartHealthMonitor performs periodic health checks and updates in-memory state.
// Configuration problems surface here for operators instead of in chat replies.
func StartHealthMonitor(redisClients []*redis.Client, mongoClient *mongo.Client) {
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()

		ctx := context.Background()

		for range ticker.C {
			var redisHealth []bool

			for _, client := range redisClients {
				err := client.Ping(ctx).Err()
				redisHealth = append(redisHealth, err == nil)
			}

			mongoHealthy := mongoClient.Ping(ctx, nil) == nil

			var configErr string
			if err := config.Validate(); err != nil {
				configErr = err.Error()
			}

			mu.Lock()
			currentHealth = HealthStatus{
				Mongo:       mongoHealthy,
				Redis:       redisHealth,
				ConfigError: configErr,
				CheckedAt:   time.Now(),
			}
			mu.Unlock()
		}
	}()
}
