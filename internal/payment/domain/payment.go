package domain

import (
	"errors"
	"time"

	"github.com/dmehra2102/restaurant-pos/pkg/money"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrIntentNotFound = errors.New("payment intent not found")
	ErrAmountMismatch = errors.New("amount does not match order total")
	ErrAlreadyPaid    = errors.New("order is already paid")
	ErrAlreadySettled = errors.New("payment intent already settled")
	ErrUnknownOutcome = errors.New("unknown gateway outcome")
)

type Status string

const (
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
)

type IntentStatus string

const (
	IntentRequiresPayment IntentStatus = "requires_payment"
	IntentSucceeded       IntentStatus = "succeeded"
	IntentFailed          IntentStatus = "failed"
)

// Intent is a pending card or online payment. The client secret is
// handed to the terminal's payment SDK; the gateway later reports the
// outcome by intent id.
type Intent struct {
	ID           string       `json:"id"`
	OrderID      string       `json:"orderId"`
	Amount       money.Amount `json:"amount"`
	ClientSecret string       `json:"clientSecret"`
	Status       IntentStatus `json:"status"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

func NewIntent(id, secret, orderID string, amount money.Amount, now time.Time) Intent {
	now = now.UTC()
	return Intent{
		ID:           id,
		OrderID:      orderID,
		Amount:       amount,
		ClientSecret: secret,
		Status:       IntentRequiresPayment,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Payment is the settled outcome for an order.
type Payment struct {
	OrderID   string
	IntentID  string
	Amount    money.Amount
	Status    Status
	Reason    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GatewayEvent is what the payment gateway publishes once the customer
// finished (or abandoned) the payment.
type GatewayEvent struct {
	OrderID  string `json:"orderId"`
	IntentID string `json:"intentId"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
}

func (e GatewayEvent) Succeeded() (bool, error) {
	switch e.Status {
	case "succeeded":
		return true, nil
	case "failed":
		return false, nil
	}
	return false, ErrUnknownOutcome
}
