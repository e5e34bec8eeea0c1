package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	ListingsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "listings_created_total",
		Help: "Созданные объявления по статусу модерации",
	}, []string{"status"})
	ModerationFlags = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_flags_total",
		Help: "Срабатывания модерации по запрещённому слову",
	}, []string{"term"})
	FeedBuildSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "feed_build_seconds",
		Help:    "Время построения ленты",
		Buckets: prometheus.DefBuckets,
	})
	RouletteSpins = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roulette_spins_total",
		Help: "Запущенные вращения рулетки",
	})
	RouletteOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roulette_outcomes_total",
		Help: "Итоги сессий рулетки",
	}, []string{"outcome"})
	ReviewAlertErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "review_alert_errors_total",
		Help: "Ошибки отправки уведомлений модераторам",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		ListingsCreated,
		ModerationFlags,
		FeedBuildSeconds,
		RouletteSpins,
		RouletteOutcomes,
		ReviewAlertErrors,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// IncListingCreated учитывает новое объявление.
func IncListingCreated(status string) {
	ListingsCreated.WithLabelValues(status).Inc()
}

// IncModerationFlag учитывает срабатывание модерации.
func IncModerationFlag(term string) {
	if term == "" {
		term = "unknown"
	}
	ModerationFlags.WithLabelValues(term).Inc()
}

// ObserveFeedBuild записывает длительность построения ленты.
func ObserveFeedBuild(start time.Time) {
	FeedBuildSeconds.Observe(time.Since(start).Seconds())
}

// IncRouletteSpin учитывает запуск рулетки.
func IncRouletteSpin() {
	RouletteSpins.Inc()
}

// IncRouletteOutcome учитывает итог сессии рулетки.
func IncRouletteOutcome(outcome string) {
	RouletteOutcomes.WithLabelValues(outcome).Inc()
}

// IncReviewAlertError учитывает неудачное уведомление модераторов.
func IncReviewAlertError() {
	ReviewAlertErrors.Inc()
}
