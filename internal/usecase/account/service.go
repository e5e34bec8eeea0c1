package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"tiktroq/internal/domain"
)

// ErrInvalidSettings возвращается для пустого города или неположительного радиуса.
var ErrInvalidSettings = errors.New("некорректные настройки")

const (
	newUserName   = "Vous"
	newUserAvatar = "🧑"
	newUserTrust  = 4.5
)

// Settings — изменяемые пользователем настройки. Nil-поля не меняются.
type Settings struct {
	City     *string          `json:"city,omitempty"`
	RadiusKm *float64         `json:"radiusKm,omitempty"`
	Consents *domain.Consents `json:"consent,omitempty"`
}

// Export — выгрузка данных пользователя.
type Export struct {
	Me            domain.User           `json:"me"`
	Consents      domain.Consents       `json:"consents"`
	Users         []domain.User         `json:"users"`
	Posts         []domain.Listing      `json:"posts"`
	Conversations []domain.Conversation `json:"conversations"`
}

// ConversationStore — операции с перепиской, нужные аккаунту.
type ConversationStore interface {
	List(ctx context.Context, ownerID string) ([]domain.Conversation, error)
	DeleteForOwner(ctx context.Context, ownerID string) error
}

// Defaults — значения профиля нового пользователя.
type Defaults struct {
	City     string
	RadiusKm float64
}

// Service управляет профилем пользователя.
type Service struct {
	users         domain.UserRepo
	listings      domain.ListingRepo
	conversations ConversationStore
	defaults      Defaults
	log           zerolog.Logger
}

// NewService создаёт сервис аккаунтов.
func NewService(users domain.UserRepo, listings domain.ListingRepo, conversations ConversationStore, defaults Defaults, logger zerolog.Logger) *Service {
	if defaults.RadiusKm <= 0 {
		defaults.RadiusKm = 5
	}
	return &Service{
		users:         users,
		listings:      listings,
		conversations: conversations,
		defaults:      defaults,
		log:           logger.With().Str("component", "account").Logger(),
	}
}

// Login возвращает профиль пользователя, создавая его при первом входе.
// Аутентификации нет: идентификатор приходит от клиента как есть.
func (s *Service) Login(ctx context.Context, viewerID string) (domain.User, bool, error) {
	var (
		user    domain.User
		created bool
	)
	err := s.users.UpdateUsers(ctx, func(all []domain.User) ([]domain.User, error) {
		if u, ok := domain.FindUser(all, viewerID); ok {
			user = u
			return all, nil
		}
		user = domain.User{
			ID:        viewerID,
			FirstName: newUserName,
			Avatar:    newUserAvatar,
			City:      s.defaults.City,
			Trust:     newUserTrust,
			RadiusKm:  s.defaults.RadiusKm,
			Consents:  domain.DefaultConsents(),
		}
		created = true
		return append([]domain.User{user}, all...), nil
	})
	if err != nil {
		return domain.User{}, false, fmt.Errorf("вход: %w", err)
	}
	if created {
		s.log.Info().Str("viewer", viewerID).Msg("создан новый пользователь")
	}
	return user, created, nil
}

// Profile возвращает профиль пользователя.
func (s *Service) Profile(ctx context.Context, viewerID string) (domain.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("получение пользователей: %w", err)
	}
	u, ok := domain.FindUser(users, viewerID)
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

// UpdateSettings применяет настройки к профилю.
func (s *Service) UpdateSettings(ctx context.Context, viewerID string, settings Settings) (domain.User, error) {
	if settings.City != nil && strings.TrimSpace(*settings.City) == "" {
		return domain.User{}, fmt.Errorf("%w: пустой город", ErrInvalidSettings)
	}
	if settings.RadiusKm != nil && *settings.RadiusKm <= 0 {
		return domain.User{}, fmt.Errorf("%w: радиус должен быть положительным", ErrInvalidSettings)
	}
	return s.mutate(ctx, viewerID, func(u *domain.User) {
		if settings.City != nil {
			u.City = strings.TrimSpace(*settings.City)
		}
		if settings.RadiusKm != nil {
			u.RadiusKm = *settings.RadiusKm
		}
		if settings.Consents != nil {
			u.Consents = *settings.Consents
		}
	})
}

// TogglePremium включает или выключает подписку.
func (s *Service) TogglePremium(ctx context.Context, viewerID string) (domain.User, error) {
	return s.mutate(ctx, viewerID, func(u *domain.User) {
		u.Premium = !u.Premium
	})
}

// Export собирает выгрузку: профиль, согласия, объявления пользователя,
// его переписки и профили собеседников.
func (s *Service) Export(ctx context.Context, viewerID string) (Export, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return Export{}, fmt.Errorf("получение пользователей: %w", err)
	}
	me, ok := domain.FindUser(users, viewerID)
	if !ok {
		return Export{}, domain.ErrUserNotFound
	}
	convs, err := s.conversations.List(ctx, viewerID)
	if err != nil {
		return Export{}, err
	}
	listings, err := s.listings.ListListings(ctx)
	if err != nil {
		return Export{}, fmt.Errorf("получение объявлений: %w", err)
	}

	related := map[string]bool{viewerID: true}
	for _, c := range convs {
		related[c.WithUserID] = true
	}
	out := Export{
		Me:            me,
		Consents:      me.Consents,
		Users:         make([]domain.User, 0),
		Posts:         make([]domain.Listing, 0),
		Conversations: convs,
	}
	for _, u := range users {
		if related[u.ID] {
			out.Users = append(out.Users, u)
		}
	}
	for _, l := range listings {
		if l.UserID == viewerID {
			out.Posts = append(out.Posts, l.ForViewer(viewerID))
		}
	}
	return out, nil
}

// Delete удаляет переписки, профиль и отметки пользователя. Его объявления остаются в ленте.
func (s *Service) Delete(ctx context.Context, viewerID string) error {
	if err := s.conversations.DeleteForOwner(ctx, viewerID); err != nil {
		return err
	}
	err := s.users.UpdateUsers(ctx, func(all []domain.User) ([]domain.User, error) {
		out := all[:0]
		found := false
		for _, u := range all {
			if u.ID == viewerID {
				found = true
				continue
			}
			out = append(out, u)
		}
		if !found {
			return nil, domain.ErrUserNotFound
		}
		return out, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("удаление пользователя: %w", err)
	}
	err = s.listings.UpdateListings(ctx, func(all []domain.Listing) ([]domain.Listing, error) {
		for i := range all {
			all[i].ForgetViewer(viewerID)
		}
		return all, nil
	})
	if err != nil {
		return fmt.Errorf("снятие отметок: %w", err)
	}
	s.log.Info().Str("viewer", viewerID).Msg("аккаунт удалён")
	return nil
}

func (s *Service) mutate(ctx context.Context, viewerID string, fn func(*domain.User)) (domain.User, error) {
	var result domain.User
	err := s.users.UpdateUsers(ctx, func(all []domain.User) ([]domain.User, error) {
		for i := range all {
			if all[i].ID == viewerID {
				fn(&all[i])
				result = all[i]
				return all, nil
			}
		}
		return nil, domain.ErrUserNotFound
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("обновление профиля: %w", err)
	}
	return result, nil
}
