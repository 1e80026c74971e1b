package application

import (
	"context"

	catalog "github.com/dmehra2102/restaurant-pos/internal/catalog/domain"
	"github.com/dmehra2102/restaurant-pos/internal/pos/domain"
	"github.com/dmehra2102/restaurant-pos/pkg/money"
)

type Catalog interface {
	Item(ctx context.Context, id string) (catalog.Item, error)
	FreshMenu(ctx context.Context) (catalog.Menu, error)
}

type OrderReceipt struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Total  money.Amount `json:"total"`
}

// OrderSubmitter sends a draft to the order service. The key is sent as
// the Idempotency-Key header so a retried attempt returns the same order.
type OrderSubmitter interface {
	Submit(ctx context.Context, draft domain.OrderDraft, idempotencyKey string) (OrderReceipt, error)
}

// PaymentIntents creates a gateway intent for an order and returns the
// client secret the terminal hands to the payment SDK.
type PaymentIntents interface {
	CreateIntent(ctx context.Context, orderID string, amount money.Amount) (string, error)
}

type Recorder interface {
	CartChanged(op string)
	CheckoutFinished(outcome string)
	SessionsOpen(n int)
}

type nopRecorder struct{}

func (nopRecorder) CartChanged(string)      {}
func (nopRecorder) CheckoutFinished(string) {}
func (nopRecorder) SessionsOpen(int)        {}
