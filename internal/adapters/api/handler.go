package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"tiktroq/internal/domain"
	httpinfra "tiktroq/internal/infra/http"
	"tiktroq/internal/usecase/account"
	"tiktroq/internal/usecase/conversations"
	"tiktroq/internal/usecase/feed"
	"tiktroq/internal/usecase/listings"
	"tiktroq/internal/usecase/roulette"
)

const maxBodyBytes = 1 << 20

// NoticeDrainer отдаёт накопленные уведомления зрителя.
type NoticeDrainer interface {
	Drain(viewerID string) []domain.Notice
}

// Handler обслуживает REST API приложения.
type Handler struct {
	feed          *feed.Service
	listings      *listings.Service
	matcher       *roulette.Matcher
	conversations *conversations.Service
	account       *account.Service
	notices       NoticeDrainer
	defaultRadius float64
	log           zerolog.Logger
}

// Deps — зависимости обработчиков.
type Deps struct {
	Feed          *feed.Service
	Listings      *listings.Service
	Matcher       *roulette.Matcher
	Conversations *conversations.Service
	Account       *account.Service
	Notices       NoticeDrainer
	DefaultRadius float64
}

// NewHandler создаёт обработчики.
func NewHandler(deps Deps, logger zerolog.Logger) *Handler {
	return &Handler{
		feed:          deps.Feed,
		listings:      deps.Listings,
		matcher:       deps.Matcher,
		conversations: deps.Conversations,
		account:       deps.Account,
		notices:       deps.Notices,
		defaultRadius: deps.DefaultRadius,
		log:           logger.With().Str("component", "api").Logger(),
	}
}

// Routes регистрирует маршруты /api/v1.
func (h *Handler) Routes(r chi.Router, adminSecret string) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/categories", h.categories)

		r.Group(func(protected chi.Router) {
			protected.Use(httpinfra.ViewerMiddleware)

			protected.Post("/login", h.login)
			protected.Get("/feed", h.getFeed)

			protected.Post("/listings", h.createListing)
			protected.Get("/listings/mine", h.myListings)
			protected.Post("/listings/{id}/like", h.toggleLike)
			protected.Post("/listings/{id}/save", h.toggleSave)

			protected.Post("/roulette/spin", h.spin)
			protected.Get("/roulette", h.session)
			protected.Post("/roulette/accept", h.accept)
			protected.Post("/roulette/reject", h.reject)
			protected.Delete("/roulette", h.cancel)

			protected.Get("/conversations", h.listConversations)
			protected.Get("/conversations/{userID}", h.getConversation)
			protected.Post("/conversations/{userID}/messages", h.sendMessage)

			protected.Get("/notices", h.drainNotices)

			protected.Get("/me", h.profile)
			protected.Put("/settings", h.updateSettings)
			protected.Post("/settings/premium", h.togglePremium)
			protected.Get("/account/export", h.export)
			protected.Delete("/account", h.deleteAccount)
		})

		r.Group(func(admin chi.Router) {
			admin.Use(httpinfra.AdminMiddleware(adminSecret))
			admin.Post("/admin/listings/{id}/review", h.review)
		})
	})
}

func (h *Handler) categories(w http.ResponseWriter, _ *http.Request) {
	all := append([]domain.Category{domain.CategoryAll}, domain.Categories()...)
	httpinfra.WriteJSON(w, http.StatusOK, map[string]any{"categories": all})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	user, created, err := h.account.Login(r.Context(), viewer(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpinfra.WriteJSON(w, status, map[string]any{"user": user, "created": created})
}

type feedResponse struct {
	Category domain.Category   `json:"category"`
	Query    string            `json:"query"`
	Items    []domain.FeedItem `json:"items"`
	Cursor   feedCursor        `json:"cursor"`
}

type feedCursor struct {
	Index   int  `json:"index"`
	Len     int  `json:"len"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
}

// getFeed отдаёт ленту. Параметр index задаёт текущую карточку, move=next|prev
// сдвигает её с ограничением по краям ленты.
func (h *Handler) getFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := domain.Category(q.Get("category"))
	items, err := h.feed.Feed(r.Context(), viewer(r), category, q.Get("q"))
	if err != nil {
		h.fail(w, err)
		return
	}
	if category == "" {
		category = domain.CategoryAll
	}

	idx, _ := strconv.Atoi(q.Get("index"))
	cur := feed.Cursor{Len: len(items)}.At(idx)
	switch q.Get("move") {
	case "next":
		cur = cur.Next()
	case "prev":
		cur = cur.Prev()
	}
	httpinfra.WriteJSON(w, http.StatusOK, feedResponse{
		Category: category,
		Query:    q.Get("q"),
		Items:    items,
		Cursor: feedCursor{
			Index:   cur.Index,
			Len:     cur.Len,
			HasNext: cur.Index < cur.Len-1,
			HasPrev: cur.Index > 0,
		},
	})
}

func (h *Handler) createListing(w http.ResponseWriter, r *http.Request) {
	var draft listings.Draft
	if !decode(w, r, &draft) {
		return
	}
	listing, err := h.listings.Create(r.Context(), viewer(r), draft)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusCreated, listing)
}

func (h *Handler) myListings(w http.ResponseWriter, r *http.Request) {
	mine, err := h.listings.ListByOwner(r.Context(), viewer(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string]any{"items": mine})
}

func (h *Handler) toggleLike(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listings.ToggleLike(r.Context(), viewer(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, listing)
}

func (h *Handler) toggleSave(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listings.ToggleSave(r.Context(), viewer(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, listing)
}

func (h *Handler) spin(w http.ResponseWriter, r *http.Request) {
	v, err := h.viewerProfile(r.Context(), viewer(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	s, err := h.matcher.Start(r.Context(), v)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusAccepted, s)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	httpinfra.WriteJSON(w, http.StatusOK, h.matcher.Session(viewer(r)))
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request) {
	conv, err := h.matcher.Accept(r.Context(), viewer(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, conv)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	if err := h.matcher.Reject(r.Context(), viewer(r)); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.matcher.Cancel(viewer(r))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.conversations.List(r.Context(), viewer(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string]any{"items": convs})
}

func (h *Handler) getConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := h.conversations.Get(r.Context(), viewer(r), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, conv)
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !decode(w, r, &req) {
		return
	}
	msg, err := h.conversations.Send(r.Context(), viewer(r), chi.URLParam(r, "userID"), req.Text)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusCreated, msg)
}

func (h *Handler) drainNotices(w http.ResponseWriter, r *http.Request) {
	httpinfra.WriteJSON(w, http.StatusOK, map[string]any{"items": h.notices.Drain(viewer(r))})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.account.Profile(r.Context(), viewer(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req account.Settings
	if !decode(w, r, &req) {
		return
	}
	u, err := h.account.UpdateSettings(r.Context(), viewer(r), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) togglePremium(w http.ResponseWriter, r *http.Request) {
	u, err := h.account.TogglePremium(r.Context(), viewer(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	doc, err := h.account.Export(r.Context(), viewer(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="tiktroq-donnees.json"`)
	httpinfra.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id := viewer(r)
	if err := h.account.Delete(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	h.matcher.Cancel(id)
	w.WriteHeader(http.StatusNoContent)
}

type reviewRequest struct {
	Approve bool `json:"approve"`
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !decode(w, r, &req) {
		return
	}
	listing, err := h.listings.Review(r.Context(), chi.URLParam(r, "id"), req.Approve)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, listing)
}

// viewerProfile собирает параметры рулетки: радиус берётся из профиля,
// для незарегистрированного зрителя используется радиус по умолчанию.
func (h *Handler) viewerProfile(ctx context.Context, id string) (domain.Viewer, error) {
	v := domain.Viewer{ID: id, RadiusKm: h.defaultRadius}
	u, err := h.account.Profile(ctx, id)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return v, nil
	case err != nil:
		return domain.Viewer{}, err
	}
	if u.RadiusKm > 0 {
		v.RadiusKm = u.RadiusKm
	}
	return v, nil
}

// fail переводит ошибки usecase-слоя в HTTP-статусы.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, roulette.ErrEmptyPool):
		httpinfra.WriteJSON(w, http.StatusConflict, httpinfra.ErrorResponse{Error: err.Error(), Notice: roulette.EmptyPoolNotice})
	case errors.Is(err, roulette.ErrNoSession),
		errors.Is(err, domain.ErrListingNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, conversations.ErrConversationNotFound):
		httpinfra.WriteError(w, http.StatusNotFound, err)
	case errors.Is(err, roulette.ErrNotAwaitingDecision),
		errors.Is(err, listings.ErrNotPending):
		httpinfra.WriteError(w, http.StatusConflict, err)
	case errors.Is(err, listings.ErrInvalidDraft),
		errors.Is(err, account.ErrInvalidSettings),
		errors.Is(err, feed.ErrUnknownCategory),
		errors.Is(err, conversations.ErrEmptyMessage),
		errors.Is(err, conversations.ErrSelfConversation):
		httpinfra.WriteError(w, http.StatusBadRequest, err)
	default:
		h.log.Error().Err(err).Msg("api: внутренняя ошибка")
		httpinfra.WriteError(w, http.StatusInternalServerError, errors.New("внутренняя ошибка"))
	}
}

func viewer(r *http.Request) string {
	return httpinfra.ViewerID(r.Context())
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		msg := "некорректное тело запроса"
		if !strings.Contains(err.Error(), "EOF") {
			msg += ": " + err.Error()
		}
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New(msg))
		return false
	}
	return true
}
