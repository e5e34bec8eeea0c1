package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tiktroq/internal/domain"
	"tiktroq/internal/infra/metrics"
)

// ErrUnknownCategory возвращается, если категория не входит в фиксированный список.
var ErrUnknownCategory = errors.New("неизвестная категория")

// Service собирает ленту для зрителя.
type Service struct {
	listings domain.ListingRepo
	users    domain.UserRepo
}

// NewService создаёт сервис ленты.
func NewService(listings domain.ListingRepo, users domain.UserRepo) *Service {
	return &Service{listings: listings, users: users}
}

// Feed возвращает одобренные объявления с владельцами, отфильтрованные по категории и запросу.
// Отметки «нравится» и «сохранено» относятся к viewerID.
func (s *Service) Feed(ctx context.Context, viewerID string, category domain.Category, query string) ([]domain.FeedItem, error) {
	if category == "" {
		category = domain.CategoryAll
	}
	if !category.ValidFilter() {
		return nil, ErrUnknownCategory
	}
	start := time.Now()
	defer metrics.ObserveFeedBuild(start)

	listings, err := s.listings.ListListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение объявлений: %w", err)
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	owners := make(map[string]domain.User, len(users))
	for _, u := range users {
		owners[u.ID] = u
	}

	filtered := Filter(Visible(listings), category, query)
	items := make([]domain.FeedItem, 0, len(filtered))
	for _, l := range filtered {
		item := domain.FeedItem{Listing: l.ForViewer(viewerID)}
		if owner, ok := owners[l.UserID]; ok {
			owner := owner
			item.Owner = &owner
		}
		items = append(items, item)
	}
	return items, nil
}
