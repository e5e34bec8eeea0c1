package conversations

import (
	"context"
	"errors"
	"testing"

	"tiktroq/internal/adapters/repo"
	"tiktroq/internal/domain"
)

func newService() (*Service, *repo.Collections) {
	store := repo.NewCollections(repo.NewMemory(), "test", nil)
	return NewService(store), store
}

func TestOpenOrReuseCreatesOnce(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()
	seed := &domain.Message{From: domain.SystemAuthor, Text: "bonjour"}

	first, created, err := svc.OpenOrReuse(ctx, "me", "u1", seed)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !created || len(first.Messages) != 1 || first.Messages[0].Text != "bonjour" {
		t.Fatalf("ожидали новую переписку с одним сообщением, получили %+v", first)
	}
	if first.Messages[0].ID == "" || first.Messages[0].At.IsZero() {
		t.Fatalf("сообщение должно получить id и время")
	}

	second, created, err := svc.OpenOrReuse(ctx, "me", "u1", seed)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if created || second.ID != first.ID || len(second.Messages) != 1 {
		t.Fatalf("ожидали повторное использование без нового сообщения")
	}

	all, _ := store.ListConversations(ctx)
	if len(all) != 1 {
		t.Fatalf("ожидали ровно одну переписку, получили %d", len(all))
	}
}

func TestOpenOrReuseRejectsSelf(t *testing.T) {
	svc, _ := newService()
	if _, _, err := svc.OpenOrReuse(context.Background(), "me", "me", nil); !errors.Is(err, ErrSelfConversation) {
		t.Fatalf("ожидали ErrSelfConversation, получили %v", err)
	}
}

func TestSendAppendsAndCreates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	if _, err := svc.Send(ctx, "me", "u2", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("ожидали ErrEmptyMessage")
	}
	if _, err := svc.Send(ctx, "me", "u2", "Salut"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := svc.Send(ctx, "me", "u2", "Ça va ?"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	conv, err := svc.Get(ctx, "me", "u2")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(conv.Messages) != 2 || conv.Messages[1].Text != "Ça va ?" || conv.Messages[1].From != "me" {
		t.Fatalf("неожиданные сообщения: %+v", conv.Messages)
	}
}

func TestListAndDeleteForOwner(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	_, _, _ = svc.OpenOrReuse(ctx, "me", "u1", nil)
	_, _, _ = svc.OpenOrReuse(ctx, "me", "u2", nil)
	_, _, _ = svc.OpenOrReuse(ctx, "u3", "u1", nil)

	mine, err := svc.List(ctx, "me")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(mine) != 2 || mine[0].WithUserID != "u2" {
		t.Fatalf("ожидали 2 переписки, новая первой, получили %+v", mine)
	}

	if err := svc.DeleteForOwner(ctx, "me"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	mine, _ = svc.List(ctx, "me")
	if len(mine) != 0 {
		t.Fatalf("переписки должны быть удалены")
	}
	if _, err := svc.Get(ctx, "u3", "u1"); err != nil {
		t.Fatalf("чужие переписки должны остаться")
	}
	if _, err := svc.Get(ctx, "me", "u1"); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("ожидали ErrConversationNotFound")
	}
}
