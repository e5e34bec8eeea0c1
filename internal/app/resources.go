// Package app собирает инфраструктуру сервисов по конфигу.
package app

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"tiktroq/internal/adapters/repo"
	"tiktroq/internal/adapters/telegram"
	"tiktroq/internal/domain"
	"tiktroq/internal/infra/cache"
	"tiktroq/internal/infra/config"
	"tiktroq/internal/infra/db"
	"tiktroq/internal/infra/queue"
	"tiktroq/internal/usecase/review"
)

// Resources держит открытые подключения и закрывает их в обратном порядке.
type Resources struct {
	Redis   *redis.Client
	closers []func()
}

// Close освобождает ресурсы.
func (r *Resources) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

// RedisClient возвращает клиента Redis, подключаясь при первом вызове.
func (r *Resources) RedisClient(ctx context.Context, cfg config.AppConfig) (*redis.Client, error) {
	if r.Redis != nil {
		return r.Redis, nil
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR не задан")
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	r.Redis = client
	r.closers = append(r.closers, func() { _ = client.Close() })
	return client, nil
}

// OpenStore открывает хранилище коллекций выбранного бэкенда.
func (r *Resources) OpenStore(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) (*repo.Collections, error) {
	var backend repo.Backend
	switch cfg.Store.Backend {
	case "", "memory":
		backend = repo.NewMemory()
	case "redis":
		client, err := r.RedisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		backend = repo.NewRedis(client)
	case "postgres":
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		r.closers = append(r.closers, pool.Close)
		pg := repo.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		backend = pg
	default:
		return nil, fmt.Errorf("неизвестный STORE_BACKEND %q", cfg.Store.Backend)
	}

	var seed *repo.Seed
	if cfg.Store.Seed {
		seed = repo.DemoSeed(cfg.Store.SeedOwner, time.Now().UTC())
	}
	logger.Info().Str("backend", cfg.Store.Backend).Bool("seed", seed != nil).Msg("хранилище открыто")
	return repo.NewCollections(backend, cfg.Store.KeyPrefix, seed), nil
}

// OpenReviewQueue открывает очередь модерации. Пустой бэкенд означает, что очереди нет.
func (r *Resources) OpenReviewQueue(ctx context.Context, cfg config.AppConfig) (domain.ReviewQueue, error) {
	switch cfg.Queue.Backend {
	case "":
		return nil, nil
	case "memory":
		return queue.NewMemory(0), nil
	case "redis":
		client, err := r.RedisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return queue.NewRedisReviewQueue(client, cfg.Store.KeyPrefix+":"+cfg.Queue.Review), nil
	case "rabbitmq":
		q, err := queue.NewRabbitReviewQueue(cfg.RabbitURL, cfg.Queue.Review)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, func() { _ = q.Close() })
		return q, nil
	default:
		return nil, fmt.Errorf("неизвестный REVIEW_QUEUE_BACKEND %q", cfg.Queue.Backend)
	}
}

// Cache возвращает кэш для дедупликации: Redis, если он подключён, иначе память процесса.
func (r *Resources) Cache(cfg config.AppConfig) domain.Cache {
	if r.Redis != nil {
		return cache.NewRedis(r.Redis, cfg.Store.KeyPrefix)
	}
	return cache.NewMemory()
}

// ReviewAlerter создаёт отправителя алертов в Telegram. Без токена алерты только пишутся в лог.
func ReviewAlerter(cfg config.AppConfig, logger zerolog.Logger) (domain.ReviewAlerter, error) {
	if cfg.Telegram.Token == "" {
		logger.Warn().Msg("TG_BOT_TOKEN не задан, алерты модерации пишутся в лог")
		return review.NewLogAlerter(logger), nil
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return telegram.NewReviewAlerter(bot, cfg.Telegram.ModeratorChat, logger)
}
