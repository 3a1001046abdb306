package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"collab-service/internal/config"
)

// NewRedis connects to Redis. Returns nil if Redis is unreachable; the
// broadcaster degrades to single-instance fan-out in that case.
func NewRedis(cfg *config.Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}
