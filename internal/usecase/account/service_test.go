package account

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"tiktroq/internal/adapters/repo"
	"tiktroq/internal/domain"
	"tiktroq/internal/usecase/conversations"
)

func newService(t *testing.T) (*Service, *repo.Collections, *conversations.Service) {
	t.Helper()
	store := repo.NewCollections(repo.NewMemory(), "test", nil)
	convs := conversations.NewService(store)
	ctx := context.Background()
	if err := store.SaveUsers(ctx, []domain.User{{ID: "u1", FirstName: "Marie"}, {ID: "u2", FirstName: "Thomas"}}); err != nil {
		t.Fatalf("save users: %v", err)
	}
	listings := []domain.Listing{{ID: "p1", UserID: "u1"}, {ID: "p2", UserID: "me"}}
	if err := store.SaveListings(ctx, listings); err != nil {
		t.Fatalf("save listings: %v", err)
	}
	svc := NewService(store, store, convs, Defaults{City: "Paris 11e", RadiusKm: 5}, zerolog.Nop())
	return svc, store, convs
}

func TestLoginCreatesOnce(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	u, created, err := svc.Login(ctx, "me")
	if err != nil || !created {
		t.Fatalf("первый вход: created=%v err=%v", created, err)
	}
	if u.FirstName != "Vous" || u.Avatar != "🧑" || u.City != "Paris 11e" || u.Trust != 4.5 || u.RadiusKm != 5 {
		t.Fatalf("неожиданный профиль: %+v", u)
	}
	if u.Consents != domain.DefaultConsents() || u.Premium {
		t.Fatalf("неожиданные согласия/премиум: %+v", u)
	}

	_, created, err = svc.Login(ctx, "me")
	if err != nil || created {
		t.Fatalf("повторный вход не должен создавать пользователя: created=%v err=%v", created, err)
	}
	users, _ := store.ListUsers(ctx)
	if len(users) != 3 || users[0].ID != "me" {
		t.Fatalf("новый пользователь должен быть первым, получили %d записей", len(users))
	}
}

func TestUpdateSettings(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	if _, _, err := svc.Login(ctx, "me"); err != nil {
		t.Fatalf("login: %v", err)
	}

	city, radius := " Lyon ", 12.0
	consents := domain.Consents{Messages: true}
	u, err := svc.UpdateSettings(ctx, "me", Settings{City: &city, RadiusKm: &radius, Consents: &consents})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if u.City != "Lyon" || u.RadiusKm != 12 || u.Consents != consents {
		t.Fatalf("настройки не применены: %+v", u)
	}

	zero := 0.0
	if _, err := svc.UpdateSettings(ctx, "me", Settings{RadiusKm: &zero}); !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("ожидали ErrInvalidSettings, получили %v", err)
	}
	if _, err := svc.UpdateSettings(ctx, "ghost", Settings{}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("ожидали ErrUserNotFound, получили %v", err)
	}
}

func TestTogglePremium(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	u, err := svc.TogglePremium(ctx, "u1")
	if err != nil || !u.Premium {
		t.Fatalf("включение: %+v %v", u, err)
	}
	u, _ = svc.TogglePremium(ctx, "u1")
	if u.Premium {
		t.Fatalf("повторный вызов должен выключать премиум")
	}
}

func TestExportScopesToViewer(t *testing.T) {
	svc, _, convs := newService(t)
	ctx := context.Background()
	if _, _, err := svc.Login(ctx, "me"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := convs.Send(ctx, "me", "u1", "Bonjour"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := convs.Send(ctx, "u2", "u1", "Salut"); err != nil {
		t.Fatalf("send: %v", err)
	}

	exp, err := svc.Export(ctx, "me")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if exp.Me.ID != "me" || exp.Consents != exp.Me.Consents {
		t.Fatalf("неожиданный профиль в выгрузке: %+v", exp.Me)
	}
	if len(exp.Posts) != 1 || exp.Posts[0].ID != "p2" {
		t.Fatalf("ожидали только свои объявления, получили %+v", exp.Posts)
	}
	if len(exp.Conversations) != 1 || exp.Conversations[0].WithUserID != "u1" {
		t.Fatalf("ожидали только свои переписки, получили %+v", exp.Conversations)
	}
	if len(exp.Users) != 2 {
		t.Fatalf("ожидали себя и собеседника, получили %d", len(exp.Users))
	}
	if _, err := svc.Export(ctx, "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("ожидали ErrUserNotFound, получили %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc, store, convs := newService(t)
	ctx := context.Background()
	if _, _, err := svc.Login(ctx, "me"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := convs.Send(ctx, "me", "u1", "Bonjour"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := convs.Send(ctx, "u2", "u1", "Salut"); err != nil {
		t.Fatalf("send: %v", err)
	}
	marked := []domain.Listing{
		{ID: "p1", UserID: "u1", Likes: 2, LikedBy: []string{"u2", "me"}, SavedBy: []string{"me"}},
		{ID: "p2", UserID: "me"},
	}
	if err := store.SaveListings(ctx, marked); err != nil {
		t.Fatalf("save listings: %v", err)
	}

	if err := svc.Delete(ctx, "me"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Profile(ctx, "me"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("профиль должен быть удалён")
	}
	mine, _ := convs.List(ctx, "me")
	if len(mine) != 0 {
		t.Fatalf("переписки пользователя должны быть удалены")
	}
	all, _ := store.ListConversations(ctx)
	if len(all) != 1 {
		t.Fatalf("чужие переписки должны остаться, получили %d", len(all))
	}
	listings, _ := store.ListListings(ctx)
	if len(listings) != 2 {
		t.Fatalf("объявления должны остаться")
	}
	p1 := listings[0]
	if p1.Likes != 1 || len(p1.LikedBy) != 1 || p1.LikedBy[0] != "u2" || len(p1.SavedBy) != 0 {
		t.Fatalf("отметки удалённого пользователя должны сняться: %+v", p1)
	}
	if err := svc.Delete(ctx, "me"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("повторное удаление: ожидали ErrUserNotFound, получили %v", err)
	}
}
