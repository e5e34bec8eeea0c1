package main

import (
	"context"
	"errors"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tiktroq/internal/adapters/api"
	"tiktroq/internal/adapters/notify"
	"tiktroq/internal/app"
	"tiktroq/internal/infra/clock"
	"tiktroq/internal/infra/config"
	httpinfra "tiktroq/internal/infra/http"
	"tiktroq/internal/infra/log"
	"tiktroq/internal/infra/metrics"
	"tiktroq/internal/infra/random"
	"tiktroq/internal/usecase/account"
	"tiktroq/internal/usecase/conversations"
	"tiktroq/internal/usecase/feed"
	"tiktroq/internal/usecase/listings"
	"tiktroq/internal/usecase/moderation"
	"tiktroq/internal/usecase/review"
	"tiktroq/internal/usecase/roulette"
)

func main() {
	cfg := config.Load()
	logger := log.ForService(log.NewLogger(cfg.AppEnv), "api")

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res := &app.Resources{}
	defer res.Close()

	store, err := res.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: не удалось открыть хранилище")
	}
	reviewQueue, err := res.OpenReviewQueue(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: не удалось открыть очередь модерации")
	}

	rnd := random.New(time.Now().UnixNano())
	inbox := notify.NewInbox(0, logger)
	convService := conversations.NewService(store)
	matcher := roulette.NewMatcher(store, convService, inbox, clock.Real(), rnd, roulette.Config{
		SpinInterval:    cfg.Roulette.SpinInterval,
		MinSpins:        cfg.Roulette.MinSpins,
		SpinJitter:      cfg.Roulette.SpinJitter,
		DecisionWindow:  cfg.Roulette.DecisionWindow,
		ClosedRetention: cfg.Roulette.ClosedRetention,
	}, logger)
	defer matcher.Close()

	listingService := listings.NewService(store, store, moderation.NewDefault(), reviewQueue, rnd, listings.Defaults{
		City:     cfg.Limits.DefaultCity,
		RadiusKm: cfg.Limits.DefaultRadiusKm,
	}, logger)
	accountService := account.NewService(store, store, convService, account.Defaults{
		City:     cfg.Limits.DefaultCity,
		RadiusKm: cfg.Limits.DefaultRadiusKm,
	}, logger)

	if cfg.Queue.Backend == "memory" {
		alerter, err := app.ReviewAlerter(cfg, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: не удалось создать алертер модерации")
		}
		worker := review.NewWorker(reviewQueue, alerter, res.Cache(cfg), cfg.Telegram.AlertTTL, logger)
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("api: встроенный обработчик модерации остановлен")
			}
		}()
	}

	handler := api.NewHandler(api.Deps{
		Feed:          feed.NewService(store, store),
		Listings:      listingService,
		Matcher:       matcher,
		Conversations: convService,
		Account:       accountService,
		Notices:       inbox,
		DefaultRadius: cfg.Limits.DefaultRadiusKm,
	}, logger)

	srv := httpinfra.NewServer(logger)
	handler.Routes(srv.Router, cfg.AdminSecret)

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)
	go func() {
		if err := srv.Start(":" + strconv.Itoa(cfg.Port)); err != nil {
			logger.Error().Err(err).Msg("api: сервер остановлен")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: ошибка остановки сервера")
	}
}
