package domain

import (
	"slices"

	catalog "github.com/dmehra2102/restaurant-pos/internal/catalog/domain"
	"github.com/dmehra2102/restaurant-pos/pkg/money"
)

type CartLine struct {
	Key       SelectionKey       `json:"key"`
	ItemID    string             `json:"itemId"`
	Name      string             `json:"name"`
	Image     string             `json:"image,omitempty"`
	Quantity  int                `json:"quantity"`
	Variation *catalog.Variation `json:"variation,omitempty"`
	Addons    []catalog.Addon    `json:"addons"`
	// UnitPrice is frozen when the line is first inserted.
	UnitPrice money.Amount `json:"unitPrice"`
}

func (l CartLine) LineTotal() money.Amount { return l.UnitPrice.Times(l.Quantity) }

func (l CartLine) clone() CartLine {
	c := l
	if l.Variation != nil {
		v := *l.Variation
		c.Variation = &v
	}
	c.Addons = slices.Clone(l.Addons)
	return c
}

// Cart is an ordered list of lines, unique by key.
type Cart struct {
	policy MergePolicy
	lines  []*CartLine
}

func NewCart(policy MergePolicy) *Cart {
	return &Cart{policy: policy}
}

func (c *Cart) Policy() MergePolicy { return c.policy }

// Add puts one unit of the selection into the cart. If a line with the
// same key exists only its quantity changes.
func (c *Cart) Add(item catalog.Item, variation *catalog.Variation, addons []catalog.Addon) (CartLine, error) {
	if !item.Available {
		return CartLine{}, &ValidationError{Fields: []FieldError{{Field: "itemId", Message: "item " + item.ID + " is not available"}}}
	}
	addons = uniqueAddons(addons)
	key := NewSelectionKey(item.ID, variation, addons, c.policy)
	if l := c.find(key); l != nil {
		l.Quantity++
		return l.clone(), nil
	}

	price, err := ComputeUnitPrice(item, variation, addons)
	if err != nil {
		return CartLine{}, err
	}
	l := &CartLine{
		Key:       key,
		ItemID:    item.ID,
		Name:      item.Name,
		Image:     item.Image,
		Quantity:  1,
		Addons:    addons,
		UnitPrice: price,
	}
	if variation != nil {
		v := *variation
		l.Variation = &v
	}
	c.lines = append(c.lines, l)
	return l.clone(), nil
}

// UpdateQuantity adds delta to the line's quantity and removes the line
// when it drops to zero or below. It reports false for an unknown key.
func (c *Cart) UpdateQuantity(key SelectionKey, delta int) bool {
	for i, l := range c.lines {
		if l.Key != key {
			continue
		}
		l.Quantity += delta
		if l.Quantity <= 0 {
			c.lines = slices.Delete(c.lines, i, i+1)
		}
		return true
	}
	return false
}

// QuantityForItem sums quantities over every line of itemID, whatever the
// variation.
func (c *Cart) QuantityForItem(itemID string) int {
	n := 0
	for _, l := range c.lines {
		if l.ItemID == itemID {
			n += l.Quantity
		}
	}
	return n
}

func (c *Cart) Line(key SelectionKey) (CartLine, bool) {
	if l := c.find(key); l != nil {
		return l.clone(), true
	}
	return CartLine{}, false
}

// Lines returns a copy; callers cannot mutate the cart through it.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, l.clone())
	}
	return out
}

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

func (c *Cart) Clear() { c.lines = nil }

func (c *Cart) Totals(rate TaxRate) Totals { return ComputeTotals(c.Lines(), rate) }

// PriceChange records a line whose catalog price moved since insertion.
type PriceChange struct {
	Key      SelectionKey `json:"key"`
	OldPrice money.Amount `json:"oldPrice"`
	NewPrice money.Amount `json:"newPrice"`
	Removed  bool         `json:"removed,omitempty"`
}

// Reprice recomputes every unit price against menu. Lines whose item,
// variation or add-ons disappeared or became unavailable are removed.
func (c *Cart) Reprice(menu catalog.Menu) []PriceChange {
	var changes []PriceChange
	kept := c.lines[:0]
	for _, l := range c.lines {
		price, ok := currentPrice(menu, *l)
		if !ok {
			changes = append(changes, PriceChange{Key: l.Key, OldPrice: l.UnitPrice, Removed: true})
			continue
		}
		if price != l.UnitPrice {
			changes = append(changes, PriceChange{Key: l.Key, OldPrice: l.UnitPrice, NewPrice: price})
			l.UnitPrice = price
		}
		kept = append(kept, l)
	}
	clear(c.lines[len(kept):])
	c.lines = kept
	return changes
}

// StalePrices compares lines to menu without changing anything.
func StalePrices(lines []CartLine, menu catalog.Menu) error {
	verr := &ValidationError{}
	for _, l := range lines {
		price, ok := currentPrice(menu, l)
		switch {
		case !ok:
			verr.Add("items["+string(l.Key)+"]", "no longer available")
		case price != l.UnitPrice:
			verr.Add("items["+string(l.Key)+"]", "price changed from "+l.UnitPrice.String()+" to "+price.String())
		}
	}
	return verr.OrNil()
}

func currentPrice(menu catalog.Menu, l CartLine) (money.Amount, bool) {
	item, err := menu.Get(l.ItemID)
	if err != nil || !item.Available {
		return 0, false
	}
	price, err := ComputeUnitPrice(item, l.Variation, l.Addons)
	if err != nil {
		return 0, false
	}
	return price, true
}

func (c *Cart) find(key SelectionKey) *CartLine {
	for _, l := range c.lines {
		if l.Key == key {
			return l
		}
	}
	return nil
}

func uniqueAddons(addons []catalog.Addon) []catalog.Addon {
	out := make([]catalog.Addon, 0, len(addons))
	seen := map[string]bool{}
	for _, a := range addons {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		out = append(out, a)
	}
	return out
}
