package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tiktroq/internal/adapters/notify"
	"tiktroq/internal/adapters/repo"
	"tiktroq/internal/domain"
	"tiktroq/internal/infra/clock"
	httpinfra "tiktroq/internal/infra/http"
	"tiktroq/internal/usecase/account"
	"tiktroq/internal/usecase/conversations"
	"tiktroq/internal/usecase/feed"
	"tiktroq/internal/usecase/listings"
	"tiktroq/internal/usecase/moderation"
	"tiktroq/internal/usecase/roulette"
)

const adminSecret = "secret"

type zeroRandom struct{}

func (zeroRandom) Intn(int) int     { return 0 }
func (zeroRandom) Float64() float64 { return 0.5 }

type testEnv struct {
	server *httptest.Server
	clock  *clock.FakeClock
}

func newEnv(t *testing.T, seed *repo.Seed) *testEnv {
	t.Helper()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	clk := clock.Fake(now)
	store := repo.NewCollections(repo.NewMemory(), "test", seed)
	convs := conversations.NewService(store)
	inbox := notify.NewInbox(10, zerolog.Nop())
	matcher := roulette.NewMatcher(store, convs, inbox, clk, zeroRandom{}, roulette.DefaultConfig(), zerolog.Nop())
	t.Cleanup(matcher.Close)

	h := NewHandler(Deps{
		Feed:          feed.NewService(store, store),
		Listings:      listings.NewService(store, store, moderation.NewDefault(), nil, zeroRandom{}, listings.Defaults{City: "Paris 11e", RadiusKm: 5}, zerolog.Nop()),
		Matcher:       matcher,
		Conversations: convs,
		Account:       account.NewService(store, store, convs, account.Defaults{City: "Paris 11e", RadiusKm: 5}, zerolog.Nop()),
		Notices:       inbox,
		DefaultRadius: 5,
	}, zerolog.Nop())
	srv := httpinfra.NewServer(zerolog.Nop())
	h.Routes(srv.Router, adminSecret)

	ts := httptest.NewServer(srv.Router)
	t.Cleanup(ts.Close)
	return &testEnv{server: ts, clock: clk}
}

func (e *testEnv) do(t *testing.T, method, path, viewerID string, body any, headers ...string) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if viewerID != "" {
		req.Header.Set(httpinfra.ViewerHeader, viewerID)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestRequiresViewer(t *testing.T) {
	env := newEnv(t, nil)
	if code, _ := env.do(t, http.MethodGet, "/api/v1/feed", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("ожидали 401, получили %d", code)
	}
	if code, body := env.do(t, http.MethodGet, "/api/v1/categories", "", nil); code != http.StatusOK || len(body["categories"].([]any)) != 8 {
		t.Fatalf("категории доступны без зрителя: %d %v", code, body)
	}
}

func TestLoginAndSettings(t *testing.T) {
	env := newEnv(t, nil)
	if code, _ := env.do(t, http.MethodPost, "/api/v1/login", "me", nil); code != http.StatusCreated {
		t.Fatalf("первый вход: ожидали 201, получили %d", code)
	}
	if code, _ := env.do(t, http.MethodPost, "/api/v1/login", "me", nil); code != http.StatusOK {
		t.Fatalf("повторный вход: ожидали 200, получили %d", code)
	}
	code, body := env.do(t, http.MethodPut, "/api/v1/settings", "me", map[string]any{"city": "Lyon", "radiusKm": 3})
	if code != http.StatusOK || body["city"] != "Lyon" || body["radiusKm"] != 3.0 {
		t.Fatalf("настройки: %d %v", code, body)
	}
	if code, _ := env.do(t, http.MethodPut, "/api/v1/settings", "me", map[string]any{"radiusKm": -1}); code != http.StatusBadRequest {
		t.Fatalf("отрицательный радиус: ожидали 400, получили %d", code)
	}
	if code, body := env.do(t, http.MethodPost, "/api/v1/settings/premium", "me", nil); code != http.StatusOK || body["premium"] != true {
		t.Fatalf("премиум: %d %v", code, body)
	}
	if code, body := env.do(t, http.MethodGet, "/api/v1/account/export", "me", nil); code != http.StatusOK || body["me"] == nil {
		t.Fatalf("выгрузка: %d %v", code, body)
	}
	if code, _ := env.do(t, http.MethodDelete, "/api/v1/account", "me", nil); code != http.StatusNoContent {
		t.Fatalf("удаление: ожидали 204, получили %d", code)
	}
	if code, _ := env.do(t, http.MethodGet, "/api/v1/me", "me", nil); code != http.StatusNotFound {
		t.Fatalf("профиль после удаления: ожидали 404, получили %d", code)
	}
}

func TestFeedAndListingLifecycle(t *testing.T) {
	env := newEnv(t, repo.DemoSeed("me", time.Now()))

	code, body := env.do(t, http.MethodGet, "/api/v1/feed?category=Services", "me", nil)
	if code != http.StatusOK || len(body["items"].([]any)) != 1 {
		t.Fatalf("лента по категории: %d %v", code, body)
	}
	if card := body["items"].([]any)[0].(map[string]any)["listing"].(map[string]any); card["liked"] != true || card["saved"] != true {
		t.Fatalf("me видит свои отметки из демо-данных: %v", card)
	}
	if code, _ := env.do(t, http.MethodGet, "/api/v1/feed?category=Voitures", "me", nil); code != http.StatusBadRequest {
		t.Fatalf("неизвестная категория: ожидали 400, получили %d", code)
	}

	code, created := env.do(t, http.MethodPost, "/api/v1/listings", "me", map[string]any{"title": "Vente d'arme", "category": "Objets"})
	if code != http.StatusCreated || created["status"] != string(domain.StatusPending) {
		t.Fatalf("создание: %d %v", code, created)
	}
	id := created["id"].(string)

	_, body = env.do(t, http.MethodGet, "/api/v1/feed?q=arme", "me", nil)
	if n := len(body["items"].([]any)); n != 0 {
		t.Fatalf("объявление на модерации не должно попадать в ленту, получили %d", n)
	}
	_, body = env.do(t, http.MethodGet, "/api/v1/listings/mine", "me", nil)
	if n := len(body["items"].([]any)); n != 1 {
		t.Fatalf("ожидали одно своё объявление, получили %d", n)
	}

	if code, _ := env.do(t, http.MethodPost, "/api/v1/admin/listings/"+id+"/review", "", map[string]any{"approve": true}); code != http.StatusUnauthorized {
		t.Fatalf("без токена: ожидали 401, получили %d", code)
	}
	token, err := httpinfra.IssueModeratorToken(adminSecret, "alice", time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	bearer := "Bearer " + token
	code, body = env.do(t, http.MethodPost, "/api/v1/admin/listings/"+id+"/review", "", map[string]any{"approve": true}, "Authorization", bearer)
	if code != http.StatusOK || body["status"] != string(domain.StatusApproved) {
		t.Fatalf("одобрение: %d %v", code, body)
	}
	if code, _ := env.do(t, http.MethodPost, "/api/v1/admin/listings/"+id+"/review", "", map[string]any{"approve": false}, "Authorization", bearer); code != http.StatusConflict {
		t.Fatalf("повторное решение: ожидали 409, получили %d", code)
	}

	code, body = env.do(t, http.MethodPost, "/api/v1/listings/p1/like", "me", nil)
	if code != http.StatusOK || body["liked"] != true || body["likes"] != 128.0 {
		t.Fatalf("лайк: %d %v", code, body)
	}
	code, body = env.do(t, http.MethodPost, "/api/v1/listings/p1/like", "bob", nil)
	if code != http.StatusOK || body["liked"] != true || body["likes"] != 129.0 {
		t.Fatalf("лайк второго зрителя: %d %v", code, body)
	}
	if _, ok := body["likedBy"]; ok {
		t.Fatalf("список отметивших не должен отдаваться: %v", body)
	}
	_, body = env.do(t, http.MethodGet, "/api/v1/feed?q=guitare", "bob", nil)
	card := body["items"].([]any)[0].(map[string]any)["listing"].(map[string]any)
	if card["liked"] != false || card["saved"] != false {
		t.Fatalf("bob не должен видеть отметки me: %v", card)
	}
	if code, _ := env.do(t, http.MethodPost, "/api/v1/listings/nope/save", "me", nil); code != http.StatusNotFound {
		t.Fatalf("неизвестное объявление: ожидали 404, получили %d", code)
	}
}

func TestFeedCursor(t *testing.T) {
	env := newEnv(t, repo.DemoSeed("me", time.Now()))
	_, body := env.do(t, http.MethodGet, "/api/v1/feed?index=0&move=next", "me", nil)
	cur := body["cursor"].(map[string]any)
	if cur["index"] != 1.0 || cur["hasNext"] != false || cur["hasPrev"] != true {
		t.Fatalf("курсор: %v", cur)
	}
	_, body = env.do(t, http.MethodGet, "/api/v1/feed?index=7", "me", nil)
	if idx := body["cursor"].(map[string]any)["index"]; idx != 1.0 {
		t.Fatalf("курсор должен ограничиваться концом ленты, получили %v", idx)
	}
}

func TestRouletteEmptyPool(t *testing.T) {
	env := newEnv(t, nil)
	code, body := env.do(t, http.MethodPost, "/api/v1/roulette/spin", "me", nil)
	if code != http.StatusConflict || body["notice"] != roulette.EmptyPoolNotice {
		t.Fatalf("пустой пул: %d %v", code, body)
	}
	_, body = env.do(t, http.MethodGet, "/api/v1/roulette", "me", nil)
	if body["phase"] != string(domain.PhaseIdle) {
		t.Fatalf("без сессии фаза должна быть idle: %v", body)
	}
}

func TestRouletteAcceptFlow(t *testing.T) {
	env := newEnv(t, repo.DemoSeed("me", time.Now()))

	code, body := env.do(t, http.MethodPost, "/api/v1/roulette/spin", "me", nil)
	if code != http.StatusAccepted || body["phase"] != string(domain.PhaseSpinning) {
		t.Fatalf("запуск: %d %v", code, body)
	}
	if code, _ := env.do(t, http.MethodPost, "/api/v1/roulette/accept", "me", nil); code != http.StatusConflict {
		t.Fatalf("принятие во время вращения: ожидали 409, получили %d", code)
	}

	env.clock.Advance(5 * time.Second)
	_, body = env.do(t, http.MethodGet, "/api/v1/roulette", "me", nil)
	if body["phase"] != string(domain.PhaseAwaitingDecision) || body["candidate"] == nil {
		t.Fatalf("ожидали решение: %v", body)
	}

	code, body = env.do(t, http.MethodPost, "/api/v1/roulette/accept", "me", nil)
	if code != http.StatusOK || body["withUserId"] != "u1" {
		t.Fatalf("принятие: %d %v", code, body)
	}
	msgs := body["messages"].([]any)
	text := msgs[0].(map[string]any)["text"].(string)
	if !strings.Contains(text, "iPhone 13 Pro") {
		t.Fatalf("неожиданное сообщение: %s", text)
	}

	_, body = env.do(t, http.MethodGet, "/api/v1/conversations", "me", nil)
	if n := len(body["items"].([]any)); n != 2 {
		t.Fatalf("ожидали демо-переписку и новую, получили %d", n)
	}
	code, body = env.do(t, http.MethodPost, "/api/v1/conversations/u1/messages", "me", map[string]any{"text": "Dispo samedi ?"})
	if code != http.StatusCreated || body["from"] != "me" {
		t.Fatalf("сообщение: %d %v", code, body)
	}
	if code, _ := env.do(t, http.MethodPost, "/api/v1/conversations/u1/messages", "me", map[string]any{"text": "  "}); code != http.StatusBadRequest {
		t.Fatalf("пустое сообщение: ожидали 400, получили %d", code)
	}
}

func TestRouletteTimeoutNotice(t *testing.T) {
	env := newEnv(t, repo.DemoSeed("me", time.Now()))
	if code, _ := env.do(t, http.MethodPost, "/api/v1/roulette/spin", "me", nil); code != http.StatusAccepted {
		t.Fatalf("запуск: ожидали 202, получили %d", code)
	}
	env.clock.Advance(time.Minute)

	_, body := env.do(t, http.MethodGet, "/api/v1/notices", "me", nil)
	items := body["items"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["text"] != roulette.TimeElapsedNotice {
		t.Fatalf("ожидали уведомление о таймауте: %v", items)
	}
	if code, _ := env.do(t, http.MethodPost, "/api/v1/roulette/reject", "me", nil); code != http.StatusConflict {
		t.Fatalf("отказ после таймаута: ожидали 409, получили %d", code)
	}
}
