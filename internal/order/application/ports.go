package application

import (
	"context"

	"github.com/dmehra2102/restaurant-pos/internal/order/domain"
	"github.com/dmehra2102/restaurant-pos/pkg/outbox"
)

type OrderRepository interface {
	SaveWithOutbox(ctx context.Context, o domain.Order, ev outbox.Event) error
	Get(ctx context.Context, id string) (domain.Order, error)
}

// Idempotency remembers which order a client's Idempotency-Key produced.
type Idempotency interface {
	RequestKey(scope, key string) string
	Begin(ctx context.Context, key string) (result string, fresh bool, err error)
	Complete(ctx context.Context, key, result string) error
	Release(ctx context.Context, key string) error
}
