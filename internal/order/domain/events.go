package domain

import "github.com/dmehra2102/restaurant-pos/pkg/money"

const EventOrderCreated = "OrderCreated"

type OrderCreated struct {
	OrderID       string        `json:"orderId"`
	BranchID      string        `json:"branchId"`
	Type          Type          `json:"type"`
	Source        string        `json:"source"`
	PaymentMethod string        `json:"paymentMethod"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Total         money.Amount  `json:"total"`
	Items         []OrderItem   `json:"items"`
}

func NewOrderCreated(o Order) OrderCreated {
	return OrderCreated{
		OrderID:       o.ID,
		BranchID:      o.BranchID,
		Type:          o.Type,
		Source:        o.Source,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		Total:         o.Total,
		Items:         o.Items,
	}
}
