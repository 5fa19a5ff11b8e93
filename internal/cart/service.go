package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/shelfline/shelfline-backend/pkg/db/models"
	pkgerrors "github.com/shelfline/shelfline-backend/pkg/errors"
)

// cartTTL keeps abandoned carts from lingering in Redis forever.
const cartTTL = 7 * 24 * time.Hour

// maxItems matches what the circulation desk will issue in one visit.
const maxItems = 10

type cartStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(patronEmail string) string
}

type bookLoader interface {
	GetByISBN(ctx context.Context, isbn string) (*models.Book, error)
}

// Item is one title a patron has queued for issue.
type Item struct {
	ISBN    string    `json:"isbn"`
	Title   string    `json:"title"`
	AddedAt time.Time `json:"added_at"`
}

// Service manages the per-patron issue cart stored in Redis.
type Service interface {
	Add(ctx context.Context, patronEmail, isbn string) ([]Item, error)
	Remove(ctx context.Context, patronEmail, isbn string) ([]Item, error)
	Get(ctx context.Context, patronEmail string) ([]Item, error)
	Clear(ctx context.Context, patronEmail string) error
}

type service struct {
	store cartStore
	books bookLoader
}

// NewService wires the cart service with its Redis store and catalog lookup.
func NewService(store cartStore, books bookLoader) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if books == nil {
		return nil, fmt.Errorf("book loader required")
	}
	return &service{store: store, books: books}, nil
}

func (s *service) Add(ctx context.Context, patronEmail, isbn string) ([]Item, error) {
	email, err := normalizeEmail(patronEmail)
	if err != nil {
		return nil, err
	}
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "isbn is required")
	}

	book, err := s.books.GetByISBN(ctx, isbn)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "title not found")
		}
		return nil, err
	}
	if book.AvailableCount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeOutOfStock, "no copies available")
	}

	items, err := s.load(ctx, email)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.ISBN == isbn {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "title already in cart")
		}
	}
	if len(items) >= maxItems {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is full")
	}

	items = append(items, Item{ISBN: isbn, Title: book.Title, AddedAt: time.Now().UTC()})
	if err := s.save(ctx, email, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *service) Remove(ctx context.Context, patronEmail, isbn string) ([]Item, error) {
	email, err := normalizeEmail(patronEmail)
	if err != nil {
		return nil, err
	}
	isbn = strings.TrimSpace(isbn)

	items, err := s.load(ctx, email)
	if err != nil {
		return nil, err
	}

	kept := items[:0]
	removed := false
	for _, item := range items {
		if item.ISBN == isbn {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "title not in cart")
	}

	if len(kept) == 0 {
		if err := s.store.Del(ctx, s.store.CartKey(email)); err != nil {
			return nil, err
		}
		return []Item{}, nil
	}
	if err := s.save(ctx, email, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

func (s *service) Get(ctx context.Context, patronEmail string) ([]Item, error) {
	email, err := normalizeEmail(patronEmail)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, email)
}

func (s *service) Clear(ctx context.Context, patronEmail string) error {
	email, err := normalizeEmail(patronEmail)
	if err != nil {
		return err
	}
	return s.store.Del(ctx, s.store.CartKey(email))
}

func (s *service) load(ctx context.Context, email string) ([]Item, error) {
	raw, err := s.store.Get(ctx, s.store.CartKey(email))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return []Item{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart")
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding cart")
	}
	return items, nil
}

func (s *service) save(ctx context.Context, email string, items []Item) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding cart")
	}
	if err := s.store.Set(ctx, s.store.CartKey(email), string(payload), cartTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving cart")
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "patron email is required")
	}
	return email, nil
}
