package listings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tiktroq/internal/domain"
	"tiktroq/internal/infra/metrics"
	"tiktroq/internal/usecase/moderation"
)

var (
	// ErrInvalidDraft возвращается для черновика с неизвестной категорией, типом или отрицательной ценой.
	ErrInvalidDraft = errors.New("некорректное объявление")
	// ErrNotPending возвращается, если решение модератора пришло для уже рассмотренного объявления.
	ErrNotPending = errors.New("объявление не ожидает модерации")
)

const (
	defaultTitle       = "Nouvelle annonce"
	defaultDescription = "Description à venir"
	defaultDuration    = "0:23"
	defaultPoster      = "https://images.unsplash.com/photo-1596464716121-acb9fcc7d6a8?w=800&h=1000&fit=crop"
	minDistanceKm      = 0.3
)

var defaultHashtags = []string{"#Troc", "#ÉconomieCirculaire"}

// Draft — данные формы создания объявления.
type Draft struct {
	Kind           domain.ListingKind `json:"type"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	Category       domain.Category    `json:"category"`
	EstimatedValue float64            `json:"estimatedValue"`
	MediaURL       string             `json:"mediaUrl"`
	Poster         string             `json:"poster"`
}

// Defaults задаёт параметры автора, если его нет в коллекции пользователей.
type Defaults struct {
	City     string
	RadiusKm float64
}

// Service создаёт и обновляет объявления.
type Service struct {
	listings  domain.ListingRepo
	users     domain.UserRepo
	moderator *moderation.Moderator
	queue     domain.ReviewQueue
	rnd       domain.Random
	defaults  Defaults
	now       func() time.Time
	log       zerolog.Logger
}

// NewService создаёт сервис объявлений. queue может быть nil: тогда
// объявления на модерации только сохраняются.
func NewService(listings domain.ListingRepo, users domain.UserRepo, moderator *moderation.Moderator, queue domain.ReviewQueue, rnd domain.Random, defaults Defaults, logger zerolog.Logger) *Service {
	if moderator == nil {
		moderator = moderation.NewDefault()
	}
	if defaults.RadiusKm <= 0 {
		defaults.RadiusKm = 5
	}
	return &Service{
		listings:  listings,
		users:     users,
		moderator: moderator,
		queue:     queue,
		rnd:       rnd,
		defaults:  defaults,
		now:       time.Now,
		log:       logger.With().Str("component", "listings").Logger(),
	}
}

// Create проверяет текст объявления, заполняет значения по умолчанию и
// добавляет объявление в начало коллекции.
func (s *Service) Create(ctx context.Context, viewerID string, draft Draft) (domain.Listing, error) {
	if err := validate(draft); err != nil {
		return domain.Listing{}, err
	}
	city, radius, err := s.author(ctx, viewerID)
	if err != nil {
		return domain.Listing{}, err
	}

	verdict := s.moderator.Moderate(draft.Title + " " + draft.Description)
	listing := s.build(viewerID, draft, city, radius, moderation.StatusFor(verdict))

	err = s.listings.UpdateListings(ctx, func(all []domain.Listing) ([]domain.Listing, error) {
		return append([]domain.Listing{listing}, all...), nil
	})
	if err != nil {
		return domain.Listing{}, fmt.Errorf("сохранение объявления: %w", err)
	}
	metrics.IncListingCreated(string(listing.Status))

	if !verdict.Clean {
		metrics.IncModerationFlag(verdict.MatchedTerm)
		s.log.Info().Str("listing", listing.ID).Str("term", verdict.MatchedTerm).Msg(moderation.Reason(verdict))
		s.enqueueReview(ctx, listing, verdict)
	}
	return listing, nil
}

func (s *Service) enqueueReview(ctx context.Context, listing domain.Listing, verdict moderation.Verdict) {
	if s.queue == nil {
		return
	}
	job := domain.ReviewJob{
		ID:          uuid.NewString(),
		ListingID:   listing.ID,
		OwnerID:     listing.UserID,
		Title:       listing.Title,
		MatchedTerm: verdict.MatchedTerm,
		RequestedAt: listing.CreatedAt,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.log.Error().Err(err).Str("listing", listing.ID).Msg("не удалось поставить объявление в очередь модерации")
	}
}

func (s *Service) build(viewerID string, draft Draft, city string, radius float64, status domain.ModerationStatus) domain.Listing {
	kind := draft.Kind
	if kind == "" {
		kind = domain.ListingKindTroc
	}
	condition := "Bon"
	if kind == domain.ListingKindService {
		condition = "Service"
	}
	mediaType := domain.MediaTypeImage
	if draft.MediaURL != "" {
		mediaType = domain.MediaTypeVideo
	}
	return domain.Listing{
		ID:             uuid.NewString(),
		UserID:         viewerID,
		Title:          orDefault(draft.Title, defaultTitle),
		Description:    orDefault(draft.Description, defaultDescription),
		Category:       domain.Category(orDefault(string(draft.Category), string(domain.CategoryObjects))),
		EstimatedValue: draft.EstimatedValue,
		Condition:      condition,
		Kind:           kind,
		City:           city,
		DistanceKm:     s.distance(radius),
		MediaType:      mediaType,
		MediaPoster:    orDefault(draft.Poster, defaultPoster),
		MediaURL:       draft.MediaURL,
		Duration:       defaultDuration,
		Hashtags:       append([]string(nil), defaultHashtags...),
		Status:         status,
		CreatedAt:      s.now().UTC(),
	}
}

// distance имитирует расстояние до автора: случайное в пределах радиуса,
// округлённое до 0.1 км и не меньше 0.3 км.
func (s *Service) distance(radius float64) float64 {
	d := math.Round(s.rnd.Float64()*radius*10) / 10
	return math.Max(minDistanceKm, d)
}

func (s *Service) author(ctx context.Context, viewerID string) (string, float64, error) {
	city, radius := s.defaults.City, s.defaults.RadiusKm
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("получение пользователей: %w", err)
	}
	if u, ok := domain.FindUser(users, viewerID); ok {
		if u.City != "" {
			city = u.City
		}
		if u.RadiusKm > 0 {
			radius = u.RadiusKm
		}
	}
	return city, radius, nil
}

// ToggleLike переключает отметку «нравится» зрителя. Счётчик меняется
// только вместе с отметкой этого зрителя.
func (s *Service) ToggleLike(ctx context.Context, viewerID, listingID string) (domain.Listing, error) {
	l, err := s.mutate(ctx, listingID, func(l *domain.Listing) { l.ToggleLike(viewerID) })
	if err != nil {
		return domain.Listing{}, err
	}
	return l.ForViewer(viewerID), nil
}

// ToggleSave переключает отметку «сохранено» зрителя.
func (s *Service) ToggleSave(ctx context.Context, viewerID, listingID string) (domain.Listing, error) {
	l, err := s.mutate(ctx, listingID, func(l *domain.Listing) { l.ToggleSave(viewerID) })
	if err != nil {
		return domain.Listing{}, err
	}
	return l.ForViewer(viewerID), nil
}

// ListByOwner возвращает все объявления пользователя, включая ожидающие модерации.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	all, err := s.listings.ListListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение объявлений: %w", err)
	}
	out := make([]domain.Listing, 0)
	for _, l := range all {
		if l.UserID == ownerID {
			out = append(out, l.ForViewer(ownerID))
		}
	}
	return out, nil
}

// Review применяет решение модератора к объявлению на проверке.
func (s *Service) Review(ctx context.Context, listingID string, approve bool) (domain.Listing, error) {
	var notPending bool
	updated, err := s.mutate(ctx, listingID, func(l *domain.Listing) {
		if l.Status != domain.StatusPending {
			notPending = true
			return
		}
		if approve {
			l.Status = domain.StatusApproved
		} else {
			l.Status = domain.StatusRejected
		}
	})
	if err != nil {
		return domain.Listing{}, err
	}
	if notPending {
		return updated.ForViewer(""), ErrNotPending
	}
	s.log.Info().Str("listing", listingID).Str("status", string(updated.Status)).Msg("решение модератора применено")
	return updated.ForViewer(""), nil
}

func (s *Service) mutate(ctx context.Context, listingID string, fn func(*domain.Listing)) (domain.Listing, error) {
	var result domain.Listing
	err := s.listings.UpdateListings(ctx, func(all []domain.Listing) ([]domain.Listing, error) {
		for i := range all {
			if all[i].ID == listingID {
				fn(&all[i])
				result = all[i]
				return all, nil
			}
		}
		return nil, domain.ErrListingNotFound
	})
	if err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			return domain.Listing{}, domain.ErrListingNotFound
		}
		return domain.Listing{}, fmt.Errorf("обновление объявления: %w", err)
	}
	return result, nil
}

func validate(d Draft) error {
	if d.Category != "" && !d.Category.Valid() {
		return fmt.Errorf("%w: категория %q", ErrInvalidDraft, d.Category)
	}
	if d.Kind != "" && d.Kind != domain.ListingKindTroc && d.Kind != domain.ListingKindService {
		return fmt.Errorf("%w: тип %q", ErrInvalidDraft, d.Kind)
	}
	if d.EstimatedValue < 0 || math.IsNaN(d.EstimatedValue) {
		return fmt.Errorf("%w: отрицательная оценка", ErrInvalidDraft)
	}
	return nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
