package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// TaskQueue hands work to the background workers. Implementations must be
// safe for concurrent use.
type TaskQueue interface {
	Push(ctx context.Context, queue string, payload any) error
}

// RedisTaskQueue pushes JSON-encoded tasks onto Redis lists consumed by the
// workers with BLPop.
type RedisTaskQueue struct {
	rdb *redis.Client
}

// NewRedisTaskQueue creates a new RedisTaskQueue.
func NewRedisTaskQueue(rdb *redis.Client) *RedisTaskQueue {
	return &RedisTaskQueue{rdb: rdb}
}

// Push serializes payload and appends it to the named queue.
func (q *RedisTaskQueue) Push(ctx context.Context, queue string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if err := q.rdb.RPush(ctx, queue, data).Err(); err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}
	return nil
}
