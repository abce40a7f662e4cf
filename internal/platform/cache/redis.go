// Package cache bootstraps the Redis client shared by sessions, token
// storage and the job queue.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// New creates a Redis client and verifies the server answers.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: ping %s: %w", addr, err)
	}

	return client, nil
}

// QueueOptions points asynq at the same Redis server as client.
func QueueOptions(client *redis.Client) asynq.RedisClientOpt {
	opts := client.Options()
	return asynq.RedisClientOpt{
		Network:  opts.Network,
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	}
}
