package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tiktroq/internal/domain"
	"tiktroq/internal/infra/metrics"
)

// RedisReviewQueue реализует очередь модерации на базе Redis lists.
type RedisReviewQueue struct {
	client  redis.UniversalClient
	key     string
	timeout time.Duration
}

var _ domain.ReviewQueue = (*RedisReviewQueue)(nil)

// NewRedisReviewQueue создаёт очередь по указанному ключу.
func NewRedisReviewQueue(client redis.UniversalClient, key string) *RedisReviewQueue {
	return &RedisReviewQueue{client: client, key: key, timeout: time.Second}
}

// Enqueue публикует задачу в очередь.
func (q *RedisReviewQueue) Enqueue(ctx context.Context, job domain.ReviewJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	start := time.Now()
	err = q.client.LPush(ctx, q.key, payload).Err()
	metrics.ObserveNetworkRequest("redis", "lpush", q.key, start, err)
	if err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Pop блокирующе читает задачу из очереди.
func (q *RedisReviewQueue) Pop(ctx context.Context) (domain.ReviewJob, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.ReviewJob{}, err
		}

		res, err := q.client.BRPop(ctx, q.timeout, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.ReviewJob{}, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.ReviewJob{}, err
		}
		if len(res) != 2 {
			return domain.ReviewJob{}, errors.New("redis queue: unexpected response")
		}
		return decodeJob([]byte(res[1]))
	}
}

func decodeJob(payload []byte) (domain.ReviewJob, error) {
	var job domain.ReviewJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return domain.ReviewJob{}, fmt.Errorf("decode job: %w", err)
	}
	return job, nil
}
