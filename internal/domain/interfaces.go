package domain

import (
	"context"
	"errors"
	"time"
)

// ErrUserNotFound возвращается, если пользователя нет в хранилище.
var ErrUserNotFound = errors.New("пользователь не найден")

// ErrListingNotFound возвращается, если объявления нет в хранилище.
var ErrListingNotFound = errors.New("объявление не найдено")

// UserRepo хранит коллекцию пользователей целиком.
type UserRepo interface {
	ListUsers(ctx context.Context) ([]User, error)
	SaveUsers(ctx context.Context, users []User) error
	// UpdateUsers читает коллекцию, применяет fn и записывает результат.
	UpdateUsers(ctx context.Context, fn func([]User) ([]User, error)) error
}

// ListingRepo хранит коллекцию объявлений целиком, в порядке новизны.
type ListingRepo interface {
	ListListings(ctx context.Context) ([]Listing, error)
	SaveListings(ctx context.Context, listings []Listing) error
	UpdateListings(ctx context.Context, fn func([]Listing) ([]Listing, error)) error
}

// ConversationRepo хранит коллекцию переписок целиком.
type ConversationRepo interface {
	ListConversations(ctx context.Context) ([]Conversation, error)
	SaveConversations(ctx context.Context, conversations []Conversation) error
	UpdateConversations(ctx context.Context, fn func([]Conversation) ([]Conversation, error)) error
}

// Notifier доставляет пользователю неблокирующие уведомления.
type Notifier interface {
	Notify(ctx context.Context, viewerID string, notice Notice) error
}

// ReviewAlerter сообщает модераторам о новом объявлении на проверке.
type ReviewAlerter interface {
	Alert(ctx context.Context, job ReviewJob) error
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
}

// Random — источник псевдослучайных чисел. *rand.Rand удовлетворяет интерфейсу.
type Random interface {
	Intn(n int) int
	Float64() float64
}

// FindUser ищет пользователя по идентификатору.
func FindUser(users []User, id string) (User, bool) {
	for _, u := range users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}
