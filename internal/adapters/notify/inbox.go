package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"tiktroq/internal/domain"
)

const defaultInboxLimit = 50

// Inbox хранит уведомления зрителей в памяти до их вычитки клиентом.
type Inbox struct {
	mu      sync.Mutex
	limit   int
	notices map[string][]domain.Notice
	log     zerolog.Logger
}

var _ domain.Notifier = (*Inbox)(nil)

// NewInbox создаёт ящик уведомлений. Для каждого зрителя хранится не больше limit последних.
func NewInbox(limit int, logger zerolog.Logger) *Inbox {
	if limit <= 0 {
		limit = defaultInboxLimit
	}
	return &Inbox{limit: limit, notices: make(map[string][]domain.Notice), log: logger}
}

// Notify реализует domain.Notifier.
func (i *Inbox) Notify(_ context.Context, viewerID string, notice domain.Notice) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	queue := append(i.notices[viewerID], notice)
	if len(queue) > i.limit {
		queue = queue[len(queue)-i.limit:]
	}
	i.notices[viewerID] = queue
	i.log.Debug().Str("viewer", viewerID).Str("kind", string(notice.Kind)).Msg("уведомление поставлено")
	return nil
}

// Drain возвращает и удаляет накопленные уведомления зрителя.
func (i *Inbox) Drain(viewerID string) []domain.Notice {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := i.notices[viewerID]
	delete(i.notices, viewerID)
	if out == nil {
		return []domain.Notice{}
	}
	return out
}
