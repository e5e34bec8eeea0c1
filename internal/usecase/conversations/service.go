package conversations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tiktroq/internal/domain"
)

var (
	// ErrEmptyMessage возвращается при попытке отправить пустое сообщение.
	ErrEmptyMessage = errors.New("пустое сообщение")
	// ErrConversationNotFound возвращается, если переписки нет.
	ErrConversationNotFound = errors.New("переписка не найдена")
	// ErrSelfConversation возвращается при попытке написать самому себе.
	ErrSelfConversation = errors.New("нельзя переписываться с самим собой")
)

// Service управляет перепиской пользователей.
type Service struct {
	repo domain.ConversationRepo
	now  func() time.Time
}

// NewService создаёт сервис переписок.
func NewService(repo domain.ConversationRepo) *Service {
	return &Service{repo: repo, now: time.Now}
}

// OpenOrReuse возвращает переписку ownerID с counterpartID. Новая переписка
// создаётся с сообщением seed и добавляется в начало коллекции; существующая
// возвращается как есть. Второй результат — была ли переписка создана.
func (s *Service) OpenOrReuse(ctx context.Context, ownerID, counterpartID string, seed *domain.Message) (domain.Conversation, bool, error) {
	if ownerID == counterpartID {
		return domain.Conversation{}, false, ErrSelfConversation
	}
	var (
		result  domain.Conversation
		created bool
	)
	err := s.repo.UpdateConversations(ctx, func(all []domain.Conversation) ([]domain.Conversation, error) {
		if idx := find(all, ownerID, counterpartID); idx >= 0 {
			result = all[idx]
			return all, nil
		}
		conv := domain.Conversation{
			ID:         uuid.NewString(),
			OwnerID:    ownerID,
			WithUserID: counterpartID,
			Messages:   []domain.Message{},
		}
		if seed != nil {
			msg := *seed
			if msg.ID == "" {
				msg.ID = uuid.NewString()
			}
			if msg.At.IsZero() {
				msg.At = s.now().UTC()
			}
			conv.Messages = append(conv.Messages, msg)
		}
		result = conv
		created = true
		return append([]domain.Conversation{conv}, all...), nil
	})
	if err != nil {
		return domain.Conversation{}, false, fmt.Errorf("открытие переписки: %w", err)
	}
	return result, created, nil
}

// List возвращает переписки пользователя в порядке коллекции.
func (s *Service) List(ctx context.Context, ownerID string) ([]domain.Conversation, error) {
	all, err := s.repo.ListConversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение переписок: %w", err)
	}
	out := make([]domain.Conversation, 0)
	for _, c := range all {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

// Get возвращает переписку с собеседником.
func (s *Service) Get(ctx context.Context, ownerID, counterpartID string) (domain.Conversation, error) {
	all, err := s.repo.ListConversations(ctx)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("получение переписок: %w", err)
	}
	idx := find(all, ownerID, counterpartID)
	if idx < 0 {
		return domain.Conversation{}, ErrConversationNotFound
	}
	return all[idx], nil
}

// Send добавляет сообщение от ownerID, открывая переписку при необходимости.
func (s *Service) Send(ctx context.Context, ownerID, counterpartID, text string) (domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Message{}, ErrEmptyMessage
	}
	if ownerID == counterpartID {
		return domain.Message{}, ErrSelfConversation
	}
	msg := domain.Message{ID: uuid.NewString(), From: ownerID, Text: text, At: s.now().UTC()}
	err := s.repo.UpdateConversations(ctx, func(all []domain.Conversation) ([]domain.Conversation, error) {
		if idx := find(all, ownerID, counterpartID); idx >= 0 {
			conv := all[idx]
			conv.Messages = append(append([]domain.Message(nil), conv.Messages...), msg)
			all[idx] = conv
			return all, nil
		}
		conv := domain.Conversation{ID: uuid.NewString(), OwnerID: ownerID, WithUserID: counterpartID, Messages: []domain.Message{msg}}
		return append([]domain.Conversation{conv}, all...), nil
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("отправка сообщения: %w", err)
	}
	return msg, nil
}

// DeleteForOwner удаляет все переписки пользователя.
func (s *Service) DeleteForOwner(ctx context.Context, ownerID string) error {
	return s.repo.UpdateConversations(ctx, func(all []domain.Conversation) ([]domain.Conversation, error) {
		kept := all[:0]
		for _, c := range all {
			if c.OwnerID != ownerID {
				kept = append(kept, c)
			}
		}
		return kept, nil
	})
}

func find(all []domain.Conversation, ownerID, counterpartID string) int {
	for i, c := range all {
		if c.OwnerID == ownerID && c.WithUserID == counterpartID {
			return i
		}
	}
	return -1
}
