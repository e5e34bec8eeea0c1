package review

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"tiktroq/internal/domain"
	"tiktroq/internal/infra/metrics"
)

const (
	defaultRetryDelay   = time.Second
	defaultMaxAttempts  = 5
	shutdownRequeueWait = 5 * time.Second
)

// Worker разбирает очередь модерации и уведомляет модераторов,
// не чаще одного раза на объявление в пределах ttl.
type Worker struct {
	queue       domain.ReviewQueue
	alerter     domain.ReviewAlerter
	cache       domain.Cache
	ttl         time.Duration
	retryDelay  time.Duration
	maxAttempts int
	log         zerolog.Logger
}

// NewWorker создаёт обработчик очереди.
func NewWorker(queue domain.ReviewQueue, alerter domain.ReviewAlerter, cache domain.Cache, ttl time.Duration, logger zerolog.Logger) *Worker {
	return &Worker{
		queue:       queue,
		alerter:     alerter,
		cache:       cache,
		ttl:         ttl,
		retryDelay:  defaultRetryDelay,
		maxAttempts: defaultMaxAttempts,
		log:         logger.With().Str("component", "review_worker").Logger(),
	}
}

// Run обрабатывает задачи до отмены контекста. Задача, алерт по которой
// не ушёл, возвращается в очередь после паузы, пока не исчерпаны попытки.
func (w *Worker) Run(ctx context.Context) error {
	for {
		job, err := w.queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.log.Error().Err(err).Msg("не удалось прочитать задачу модерации")
			if !w.pause(ctx) {
				return ctx.Err()
			}
			continue
		}
		if err := w.Handle(ctx, job); err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				w.requeueOnShutdown(job)
				return ctx.Err()
			}
			w.log.Error().Err(err).Str("listing", job.ListingID).Int("attempt", job.Attempts+1).Msg("не удалось уведомить модераторов")
			job.Attempts++
			if job.Attempts >= w.maxAttempts {
				w.log.Error().Str("listing", job.ListingID).Int("attempts", job.Attempts).Msg("задача модерации отброшена после повторов")
				continue
			}
			if !w.pause(ctx) {
				w.requeueOnShutdown(job)
				return ctx.Err()
			}
			w.requeue(ctx, job)
		}
	}
}

func (w *Worker) pause(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(w.retryDelay):
		return true
	}
}

// requeueOnShutdown возвращает задачу в очередь, когда контекст Run уже отменён.
func (w *Worker) requeueOnShutdown(job domain.ReviewJob) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownRequeueWait)
	defer cancel()
	w.requeue(ctx, job)
}

func (w *Worker) requeue(ctx context.Context, job domain.ReviewJob) {
	if err := w.queue.Enqueue(ctx, job); err != nil {
		w.log.Error().Err(err).Str("listing", job.ListingID).Msg("не удалось вернуть задачу в очередь")
	}
}

// Handle отправляет алерт по одной задаче. Повторные задачи по тому же
// объявлению в пределах ttl пропускаются.
func (w *Worker) Handle(ctx context.Context, job domain.ReviewJob) error {
	if job.ListingID == "" {
		w.log.Warn().Str("job", job.ID).Msg("задача модерации без объявления пропущена")
		return nil
	}
	return w.cache.Once("review_alert:"+job.ListingID, w.ttl, func() error {
		if err := w.alerter.Alert(ctx, job); err != nil {
			metrics.IncReviewAlertError()
			return err
		}
		return nil
	})
}
