package database

import (
	"context"
	"fmt"
	"net"
	"time"

	"backoffice/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to the Redis holding sessions, rate limits and
// staged worksheets, failing when it cannot be reached
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
