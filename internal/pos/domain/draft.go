package domain

import (
	"strings"

	"github.com/dmehra2102/restaurant-pos/pkg/money"
)

type OrderType string

const (
	DineIn   OrderType = "DINE_IN"
	TakeAway OrderType = "TAKE_AWAY"
	Delivery OrderType = "DELIVERY"
)

func (t OrderType) Valid() bool {
	switch t {
	case DineIn, TakeAway, Delivery:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentOnline PaymentMethod = "online"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentOnline:
		return true
	}
	return false
}

// RequiresIntent reports whether the method goes through the payment
// gateway handshake after the order is created.
func (m PaymentMethod) RequiresIntent() bool {
	return m == PaymentCard || m == PaymentOnline
}

const SourcePOS = "pos"

// CustomerDetails is the second checkout step's form.
type CustomerDetails struct {
	OrderType       OrderType     `json:"orderType"`
	BranchID        string        `json:"branchId"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	CustomerName    string        `json:"customerName,omitempty"`
	CustomerPhone   string        `json:"customerPhone,omitempty"`
	DeliveryAddress string        `json:"deliveryAddress,omitempty"`
	TableNumber     string        `json:"tableNumber,omitempty"`
}

// Validate checks the fields required for the order type. A branch is
// always required; delivery also needs name, phone and address.
func (d CustomerDetails) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(d.BranchID) == "" {
		verr.Add("branchId", "branch is required")
	}
	if !d.OrderType.Valid() {
		verr.Add("orderType", "order type must be DINE_IN, TAKE_AWAY or DELIVERY")
	}
	if !d.PaymentMethod.Valid() {
		verr.Add("paymentMethod", "payment method must be cash, card or online")
	}
	if d.OrderType == Delivery {
		if strings.TrimSpace(d.CustomerName) == "" {
			verr.Add("customerName", "name is required for delivery")
		}
		if strings.TrimSpace(d.CustomerPhone) == "" {
			verr.Add("customerPhone", "phone is required for delivery")
		}
		if strings.TrimSpace(d.DeliveryAddress) == "" {
			verr.Add("deliveryAddress", "address is required for delivery")
		}
	}
	return verr.OrNil()
}

type DraftItem struct {
	MenuItemID  string       `json:"menuItemId"`
	Quantity    int          `json:"quantity"`
	Price       money.Amount `json:"price"`
	VariationID string       `json:"variationId,omitempty"`
	AddonIDs    []string     `json:"addonIds,omitempty"`
}

// OrderDraft is the one-shot payload sent to the order service.
type OrderDraft struct {
	BranchID        string        `json:"branchId"`
	Type            OrderType     `json:"type"`
	Total           money.Amount  `json:"total"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	Source          string        `json:"source"`
	Items           []DraftItem   `json:"items"`
	CustomerName    string        `json:"customerName,omitempty"`
	CustomerPhone   string        `json:"customerPhone,omitempty"`
	DeliveryAddress string        `json:"deliveryAddress,omitempty"`
	TableNumber     string        `json:"tableNumber,omitempty"`
}

func NewOrderDraft(lines []CartLine, totals Totals, d CustomerDetails) OrderDraft {
	items := make([]DraftItem, 0, len(lines))
	for _, l := range lines {
		it := DraftItem{MenuItemID: l.ItemID, Quantity: l.Quantity, Price: l.UnitPrice}
		if l.Variation != nil {
			it.VariationID = l.Variation.ID
		}
		for _, a := range l.Addons {
			it.AddonIDs = append(it.AddonIDs, a.ID)
		}
		items = append(items, it)
	}
	return OrderDraft{
		BranchID:        d.BranchID,
		Type:            d.OrderType,
		Total:           totals.Total,
		PaymentMethod:   d.PaymentMethod,
		Source:          SourcePOS,
		Items:           items,
		CustomerName:    strings.TrimSpace(d.CustomerName),
		CustomerPhone:   strings.TrimSpace(d.CustomerPhone),
		DeliveryAddress: strings.TrimSpace(d.DeliveryAddress),
		TableNumber:     strings.TrimSpace(d.TableNumber),
	}
}
