package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmehra2102/restaurant-pos/pkg/money"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidOrder  = errors.New("invalid order")
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusCompleted OrderStatus = "completed"
	StatusCanceled  OrderStatus = "canceled"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
	PaymentFailed PaymentStatus = "failed"
)

type Type string

const (
	TypeDineIn   Type = "DINE_IN"
	TypeTakeAway Type = "TAKE_AWAY"
	TypeDelivery Type = "DELIVERY"
)

type Order struct {
	ID              string        `json:"id"`
	BranchID        string        `json:"branchId"`
	Type            Type          `json:"type"`
	Source          string        `json:"source"`
	PaymentMethod   string        `json:"paymentMethod"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	Status          OrderStatus   `json:"status"`
	CustomerName    string        `json:"customerName,omitempty"`
	CustomerPhone   string        `json:"customerPhone,omitempty"`
	DeliveryAddress string        `json:"deliveryAddress,omitempty"`
	TableNumber     string        `json:"tableNumber,omitempty"`
	Items           []OrderItem   `json:"items"`
	Subtotal        money.Amount  `json:"subtotal"`
	Total           money.Amount  `json:"total"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

type OrderItem struct {
	MenuItemID  string       `json:"menuItemId"`
	Quantity    int          `json:"quantity"`
	Price       money.Amount `json:"price"`
	VariationID string       `json:"variationId,omitempty"`
	AddonIDs    []string     `json:"addonIds,omitempty"`
}

// PlaceOrder is the body of POST /orders as sent by the POS.
type PlaceOrder struct {
	BranchID        string       `json:"branchId"`
	Type            Type         `json:"type"`
	Total           money.Amount `json:"total"`
	PaymentMethod   string       `json:"paymentMethod"`
	Source          string       `json:"source"`
	Items           []OrderItem  `json:"items"`
	CustomerName    string       `json:"customerName,omitempty"`
	CustomerPhone   string       `json:"customerPhone,omitempty"`
	DeliveryAddress string       `json:"deliveryAddress,omitempty"`
	TableNumber     string       `json:"tableNumber,omitempty"`
}

// NewOrder validates a placement and builds the order. The client's total
// includes tax, so it must be at least the sum of the lines.
func NewOrder(id string, in PlaceOrder, now time.Time) (Order, error) {
	var problems []string
	if strings.TrimSpace(in.BranchID) == "" {
		problems = append(problems, "branchId is required")
	}
	switch in.Type {
	case TypeDineIn, TypeTakeAway:
	case TypeDelivery:
		if in.CustomerName == "" || in.CustomerPhone == "" || in.DeliveryAddress == "" {
			problems = append(problems, "delivery needs customerName, customerPhone and deliveryAddress")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown order type %q", in.Type))
	}
	if len(in.Items) == 0 {
		problems = append(problems, "at least one item is required")
	}

	var subtotal money.Amount
	for i, it := range in.Items {
		if it.MenuItemID == "" || it.Quantity <= 0 || it.Price < 0 {
			problems = append(problems, fmt.Sprintf("items[%d] is malformed", i))
			continue
		}
		subtotal += it.Price.Times(it.Quantity)
	}
	if len(problems) == 0 && in.Total < subtotal {
		problems = append(problems, fmt.Sprintf("total %s is below item subtotal %s", in.Total, subtotal))
	}
	if len(problems) > 0 {
		return Order{}, fmt.Errorf("%w: %s", ErrInvalidOrder, strings.Join(problems, "; "))
	}

	payment := PaymentUnpaid
	if in.PaymentMethod == "cash" {
		payment = PaymentPaid
	}
	now = now.UTC()
	return Order{
		ID:              id,
		BranchID:        in.BranchID,
		Type:            in.Type,
		Source:          in.Source,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   payment,
		Status:          StatusPending,
		CustomerName:    in.CustomerName,
		CustomerPhone:   in.CustomerPhone,
		DeliveryAddress: in.DeliveryAddress,
		TableNumber:     in.TableNumber,
		Items:           in.Items,
		Subtotal:        subtotal,
		Total:           in.Total,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
