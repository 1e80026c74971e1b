package domain

import (
	catalog "github.com/dmehra2102/restaurant-pos/internal/catalog/domain"
	"github.com/dmehra2102/restaurant-pos/pkg/money"
)

// TaxRate is expressed in basis points; 500 is 5%.
type TaxRate int64

const DefaultTaxRate TaxRate = 500

type Totals struct {
	Subtotal money.Amount `json:"subtotal"`
	Tax      money.Amount `json:"tax"`
	Total    money.Amount `json:"total"`
}

// ComputeUnitPrice prices one unit of item. A chosen variation's price
// replaces the base price; add-on prices are added on top. Variations or
// add-ons that do not belong to item are rejected.
func ComputeUnitPrice(item catalog.Item, variation *catalog.Variation, addons []catalog.Addon) (money.Amount, error) {
	verr := &ValidationError{}
	base := item.Price
	if variation != nil {
		v, ok := item.Variation(variation.ID)
		if !ok {
			verr.Add("variationId", "variation "+variation.ID+" does not belong to item "+item.ID)
		} else {
			base = v.Price
		}
	}
	var extras money.Amount
	for _, a := range addons {
		owned, ok := item.Addon(a.ID)
		if !ok {
			verr.Add("addonIds", "addon "+a.ID+" does not belong to item "+item.ID)
			continue
		}
		extras += owned.Price
	}
	if err := verr.OrNil(); err != nil {
		return 0, err
	}
	return base + extras, nil
}

func ComputeTotals(lines []CartLine, rate TaxRate) Totals {
	var subtotal money.Amount
	for _, l := range lines {
		subtotal += l.UnitPrice.Times(l.Quantity)
	}
	tax := subtotal.ApplyBasisPoints(int64(rate))
	return Totals{Subtotal: subtotal, Tax: tax, Total: subtotal + tax}
}

// ResolveSelection turns ids picked on the terminal into catalog values.
// Unknown ids are validation errors; duplicate add-on ids collapse.
func ResolveSelection(item catalog.Item, variationID string, addonIDs []string) (*catalog.Variation, []catalog.Addon, error) {
	verr := &ValidationError{}
	var variation *catalog.Variation
	if variationID != "" && variationID != BaseVariation {
		v, ok := item.Variation(variationID)
		if !ok {
			verr.Add("variationId", "variation "+variationID+" does not belong to item "+item.ID)
		} else {
			variation = &v
		}
	}
	seen := map[string]bool{}
	addons := make([]catalog.Addon, 0, len(addonIDs))
	for _, id := range addonIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		a, ok := item.Addon(id)
		if !ok {
			verr.Add("addonIds", "addon "+id+" does not belong to item "+item.ID)
			continue
		}
		addons = append(addons, a)
	}
	if err := verr.OrNil(); err != nil {
		return nil, nil, err
	}
	return variation, addons, nil
}
