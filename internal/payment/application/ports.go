package application

import (
	"context"

	"github.com/dmehra2102/restaurant-pos/internal/payment/domain"
	"github.com/dmehra2102/restaurant-pos/pkg/money"
	"github.com/dmehra2102/restaurant-pos/pkg/outbox"
)

type PaymentRepository interface {
	// OrderTotal returns the order's total and whether it is already paid.
	OrderTotal(ctx context.Context, orderID string) (total money.Amount, paid bool, err error)
	SaveIntent(ctx context.Context, in domain.Intent) error
	Intent(ctx context.Context, id string) (domain.Intent, error)
	// SettleWithOutbox records the payment, moves the intent out of
	// requires_payment, updates the order and writes ev, all in one
	// transaction. An intent that is not pending yields ErrAlreadySettled.
	SettleWithOutbox(ctx context.Context, p domain.Payment, intent domain.IntentStatus, ev outbox.Event) error
}
