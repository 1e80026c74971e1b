package application

import (
	"context"
	"errors"
	"time"

	"github.com/dmehra2102/restaurant-pos/internal/catalog/domain"
)

// Provider is the source of truth for the menu: the REST backend for the
// console, Postgres for the backend itself.
type Provider interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListItems(ctx context.Context, categoryID string) ([]domain.Item, error)
	ListBranches(ctx context.Context) ([]domain.Branch, error)
}

var ErrCacheMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}
