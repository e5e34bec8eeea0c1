package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tiktroq/internal/domain"
	"tiktroq/internal/infra/metrics"
)

const messageLimit = 4096

// Sender — часть tgbotapi.BotAPI, нужная для отправки сообщений.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ReviewAlerter отправляет карточки объявлений на модерации в чат модераторов.
type ReviewAlerter struct {
	bot    Sender
	chatID int64
	log    zerolog.Logger
}

var _ domain.ReviewAlerter = (*ReviewAlerter)(nil)

// NewReviewAlerter создаёт отправителя алертов.
func NewReviewAlerter(bot Sender, chatID int64, logger zerolog.Logger) (*ReviewAlerter, error) {
	if bot == nil {
		return nil, errors.New("telegram bot is nil")
	}
	if chatID == 0 {
		return nil, errors.New("moderator chat id is empty")
	}
	return &ReviewAlerter{bot: bot, chatID: chatID, log: logger}, nil
}

// Alert реализует domain.ReviewAlerter.
func (a *ReviewAlerter) Alert(ctx context.Context, job domain.ReviewJob) error {
	for _, part := range Chunks(FormatAlert(job), messageLimit) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(a.chatID, part)
		msg.DisableWebPagePreview = true
		start := time.Now()
		_, err := a.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(a.chatID, 10), start, err)
		if err != nil {
			return fmt.Errorf("send alert: %w", err)
		}
	}
	a.log.Info().Str("listing", job.ListingID).Str("term", job.MatchedTerm).Msg("алерт модерации отправлен")
	return nil
}

// FormatAlert собирает текст алерта для модераторов.
func FormatAlert(job domain.ReviewJob) string {
	var b strings.Builder
	b.WriteString("🚩 Annonce en attente de modération\n\n")
	fmt.Fprintf(&b, "Titre: %s\n", job.Title)
	fmt.Fprintf(&b, "Annonce: %s\n", job.ListingID)
	fmt.Fprintf(&b, "Auteur: %s\n", job.OwnerID)
	if job.MatchedTerm != "" {
		fmt.Fprintf(&b, "Terme détecté: %q\n", job.MatchedTerm)
	}
	if !job.RequestedAt.IsZero() {
		fmt.Fprintf(&b, "Reçue: %s\n", job.RequestedAt.UTC().Format(time.RFC3339))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Chunks режет текст на куски не длиннее limit рун. Разрез делается
// по последнему переводу строки в окне, иначе по пробелу, иначе жёстко.
func Chunks(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return []string{text}
	}

	var out []string
	for len(runes) > 0 {
		if len(runes) <= limit {
			out = appendChunk(out, runes)
			break
		}
		cut := lastIndex(runes[:limit], '\n')
		if cut <= 0 {
			cut = lastIndex(runes[:limit], ' ')
		}
		if cut <= 0 {
			cut = limit
		}
		out = appendChunk(out, runes[:cut])
		runes = runes[cut:]
	}
	return out
}

func appendChunk(out []string, runes []rune) []string {
	if chunk := strings.TrimSpace(string(runes)); chunk != "" {
		out = append(out, chunk)
	}
	return out
}

func lastIndex(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
