package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"tiktroq/internal/app"
	"tiktroq/internal/infra/config"
	"tiktroq/internal/infra/log"
	"tiktroq/internal/infra/metrics"
	"tiktroq/internal/usecase/review"
)

func main() {
	cfg := config.Load()
	logger := log.ForService(log.NewLogger(cfg.AppEnv), "review-worker")

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Queue.Backend == "" || cfg.Queue.Backend == "memory" {
		logger.Fatal().Str("backend", cfg.Queue.Backend).Msg("review-worker: нужна внешняя очередь (redis или rabbitmq)")
	}

	res := &app.Resources{}
	defer res.Close()

	reviewQueue, err := res.OpenReviewQueue(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("review-worker: не удалось открыть очередь")
	}
	if cfg.RedisAddr != "" {
		if _, err := res.RedisClient(ctx, cfg); err != nil {
			logger.Warn().Err(err).Msg("review-worker: Redis недоступен, дедупликация в памяти")
		}
	}
	alerter, err := app.ReviewAlerter(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("review-worker: не удалось создать алертер")
	}

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	worker := review.NewWorker(reviewQueue, alerter, res.Cache(cfg), cfg.Telegram.AlertTTL, logger)
	logger.Info().Str("queue", cfg.Queue.Backend).Msg("review-worker: старт")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("review-worker: остановлен с ошибкой")
	}
	logger.Info().Msg("review-worker: остановка")
}
