package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"tiktroq/internal/domain"
)

// Backend хранит коллекции целиком как JSON-блобы по строковым ключам.
type Backend interface {
	// Load возвращает блоб и false, если ключа нет.
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, payload []byte) error
}

// Collection — имя одной из трёх коллекций.
type Collection string

const (
	CollectionUsers         Collection = "users"
	CollectionListings      Collection = "posts"
	CollectionConversations Collection = "conversations"
)

// Collections реализует репозитории домена поверх Backend.
// Запись всегда заменяет коллекцию целиком, побеждает последняя запись.
type Collections struct {
	backend Backend
	prefix  string
	seed    *Seed

	mu sync.Mutex
}

var (
	_ domain.UserRepo         = (*Collections)(nil)
	_ domain.ListingRepo      = (*Collections)(nil)
	_ domain.ConversationRepo = (*Collections)(nil)
)

// NewCollections создаёт репозитории. Если seed не nil, пустые коллекции
// при чтении заполняются демонстрационными данными.
func NewCollections(backend Backend, prefix string, seed *Seed) *Collections {
	return &Collections{backend: backend, prefix: prefix, seed: seed}
}

// Key возвращает ключ коллекции в хранилище.
func (c *Collections) Key(name Collection) string {
	if c.prefix == "" {
		return string(name)
	}
	return c.prefix + "." + string(name)
}

// ListUsers реализует domain.UserRepo.
func (c *Collections) ListUsers(ctx context.Context) ([]domain.User, error) {
	var fallback []domain.User
	if c.seed != nil {
		fallback = c.seed.Users
	}
	return load(ctx, c.backend, c.Key(CollectionUsers), fallback)
}

// SaveUsers реализует domain.UserRepo.
func (c *Collections) SaveUsers(ctx context.Context, users []domain.User) error {
	return save(ctx, c.backend, c.Key(CollectionUsers), users)
}

// UpdateUsers реализует domain.UserRepo.
func (c *Collections) UpdateUsers(ctx context.Context, fn func([]domain.User) ([]domain.User, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	users, err := c.ListUsers(ctx)
	if err != nil {
		return err
	}
	updated, err := fn(users)
	if err != nil {
		return err
	}
	return c.SaveUsers(ctx, updated)
}

// ListListings реализует domain.ListingRepo.
func (c *Collections) ListListings(ctx context.Context) ([]domain.Listing, error) {
	var fallback []domain.Listing
	if c.seed != nil {
		fallback = c.seed.Listings
	}
	return load(ctx, c.backend, c.Key(CollectionListings), fallback)
}

// SaveListings реализует domain.ListingRepo.
func (c *Collections) SaveListings(ctx context.Context, listings []domain.Listing) error {
	return save(ctx, c.backend, c.Key(CollectionListings), listings)
}

// UpdateListings реализует domain.ListingRepo.
func (c *Collections) UpdateListings(ctx context.Context, fn func([]domain.Listing) ([]domain.Listing, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	listings, err := c.ListListings(ctx)
	if err != nil {
		return err
	}
	updated, err := fn(listings)
	if err != nil {
		return err
	}
	return c.SaveListings(ctx, updated)
}

// ListConversations реализует domain.ConversationRepo.
func (c *Collections) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	var fallback []domain.Conversation
	if c.seed != nil {
		fallback = c.seed.Conversations
	}
	return load(ctx, c.backend, c.Key(CollectionConversations), fallback)
}

// SaveConversations реализует domain.ConversationRepo.
func (c *Collections) SaveConversations(ctx context.Context, conversations []domain.Conversation) error {
	return save(ctx, c.backend, c.Key(CollectionConversations), conversations)
}

// UpdateConversations реализует domain.ConversationRepo.
func (c *Collections) UpdateConversations(ctx context.Context, fn func([]domain.Conversation) ([]domain.Conversation, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	conversations, err := c.ListConversations(ctx)
	if err != nil {
		return err
	}
	updated, err := fn(conversations)
	if err != nil {
		return err
	}
	return c.SaveConversations(ctx, updated)
}

func load[T any](ctx context.Context, backend Backend, key string, fallback []T) ([]T, error) {
	raw, ok, err := backend.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("чтение %s: %w", key, err)
	}
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return append([]T(nil), fallback...), nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("декодирование %s: %w", key, err)
	}
	return out, nil
}

func save[T any](ctx context.Context, backend Backend, key string, records []T) error {
	if records == nil {
		records = []T{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("кодирование %s: %w", key, err)
	}
	if err := backend.Save(ctx, key, payload); err != nil {
		return fmt.Errorf("запись %s: %w", key, err)
	}
	return nil
}
