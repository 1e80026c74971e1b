package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmehra2102/restaurant-pos/internal/catalog/domain"
)

// Service serves the catalog cache-aside. Concurrent misses on the same key
// share one provider call.
type Service struct {
	log      *slog.Logger
	provider Provider
	cache    Cache
	ttl      time.Duration
	group    singleflight.Group
}

// NewService builds a Service; cache may be nil to disable caching.
func NewService(log *slog.Logger, provider Provider, cache Cache, ttl time.Duration) *Service {
	return &Service{log: log, provider: provider, cache: cache, ttl: ttl}
}

func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	return cached(ctx, s, "catalog:categories", s.provider.ListCategories)
}

func (s *Service) Branches(ctx context.Context) ([]domain.Branch, error) {
	return cached(ctx, s, "catalog:branches", s.provider.ListBranches)
}

func (s *Service) Items(ctx context.Context, categoryID string) ([]domain.Item, error) {
	return cached(ctx, s, "catalog:items:"+categoryID, func(ctx context.Context) ([]domain.Item, error) {
		return s.provider.ListItems(ctx, categoryID)
	})
}

// Item finds one item in the (cached) full menu.
func (s *Service) Item(ctx context.Context, id string) (domain.Item, error) {
	items, err := s.Items(ctx, "")
	if err != nil {
		return domain.Item{}, err
	}
	return domain.NewMenu(items).Get(id)
}

// FreshMenu skips the cache and refreshes it. Used right before an order
// is submitted to catch price changes.
func (s *Service) FreshMenu(ctx context.Context) (domain.Menu, error) {
	items, err := s.provider.ListItems(ctx, "")
	if err != nil {
		return nil, err
	}
	s.store(ctx, "catalog:items:", items)
	return domain.NewMenu(items), nil
}

func cached[T any](ctx context.Context, s *Service, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if s.cache != nil {
		b, err := s.cache.Get(ctx, key)
		if err == nil {
			var out []T
			if err := json.Unmarshal(b, &out); err == nil {
				return out, nil
			}
			s.log.Warn("catalog cache entry unreadable", "key", key)
		} else if !errors.Is(err, ErrCacheMiss) {
			s.log.Warn("catalog cache get failed", "key", key, "err", err)
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		out, err := load(ctx)
		if err != nil {
			return nil, err
		}
		s.store(ctx, key, out)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]T), nil
}

func (s *Service) store(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("catalog cache encode failed", "key", key, "err", err)
		return
	}
	if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
		s.log.Warn("catalog cache set failed", "key", key, "err", err)
	}
}
