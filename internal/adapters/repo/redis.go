package repo

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"tiktroq/internal/infra/metrics"
)

// Redis — Backend, хранящий каждую коллекцию строковым ключом Redis.
type Redis struct {
	client *redis.Client
}

// NewRedis создаёт адаптер Redis.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Load реализует Backend.
func (r *Redis) Load(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.ObserveNetworkRequest("redis", "get", key, start, nil)
		return nil, false, nil
	}
	metrics.ObserveNetworkRequest("redis", "get", key, start, err)
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// Save реализует Backend.
func (r *Redis) Save(ctx context.Context, key string, payload []byte) error {
	start := time.Now()
	err := r.client.Set(ctx, key, payload, 0).Err()
	metrics.ObserveNetworkRequest("redis", "set", key, start, err)
	return err
}
