package domain

import "github.com/dmehra2102/restaurant-pos/pkg/money"

const (
	EventPaymentConfirmed = "PaymentConfirmed"
	EventPaymentFailed    = "PaymentFailed"
)

type PaymentConfirmed struct {
	OrderID  string       `json:"orderId"`
	IntentID string       `json:"intentId"`
	Amount   money.Amount `json:"amount"`
}

type PaymentFailed struct {
	OrderID  string `json:"orderId"`
	IntentID string `json:"intentId"`
	Reason   string `json:"reason"`
}
