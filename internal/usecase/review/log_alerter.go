package review

import (
	"context"

	"github.com/rs/zerolog"

	"tiktroq/internal/domain"
)

// LogAlerter пишет задачи модерации в журнал. Используется, когда Telegram не настроен.
type LogAlerter struct {
	log zerolog.Logger
}

// NewLogAlerter создаёт алертер-журнал.
func NewLogAlerter(logger zerolog.Logger) *LogAlerter {
	return &LogAlerter{log: logger.With().Str("component", "review_alert").Logger()}
}

// Alert реализует domain.ReviewAlerter.
func (a *LogAlerter) Alert(_ context.Context, job domain.ReviewJob) error {
	a.log.Warn().
		Str("listing", job.ListingID).
		Str("owner", job.OwnerID).
		Str("title", job.Title).
		Str("term", job.MatchedTerm).
		Msg("объявление ждёт модерации")
	return nil
}
