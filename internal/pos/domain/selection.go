package domain

import (
	"sort"
	"strings"

	catalog "github.com/dmehra2102/restaurant-pos/internal/catalog/domain"
)

// BaseVariation stands in for the variation id when none was chosen.
const BaseVariation = "base"

// MergePolicy decides which selections collapse into one cart line.
type MergePolicy int

const (
	// MergeByItemVariation keys lines by item and variation only. Re-adding
	// the same pair with different add-ons bumps the existing line and keeps
	// its original add-ons and unit price.
	MergeByItemVariation MergePolicy = iota
	// MergeByAddons also keys by the sorted add-on set, so every distinct
	// combination gets its own line and price.
	MergeByAddons
)

// SelectionKey identifies a cart line, e.g. "12-base" or "12-large".
// Separator characters inside ids are escaped with '~', so two different
// selections never share a key.
type SelectionKey string

var keyEscaper = strings.NewReplacer("~", "~~", "-", "~d", "+", "~p", ".", "~o")

func NewSelectionKey(itemID string, variation *catalog.Variation, addons []catalog.Addon, policy MergePolicy) SelectionKey {
	v := BaseVariation
	if variation != nil {
		v = keyEscaper.Replace(variation.ID)
	}
	key := keyEscaper.Replace(itemID) + "-" + v
	if policy == MergeByAddons && len(addons) > 0 {
		ids := make([]string, 0, len(addons))
		for _, a := range addons {
			ids = append(ids, keyEscaper.Replace(a.ID))
		}
		sort.Strings(ids)
		key += "+" + strings.Join(ids, ".")
	}
	return SelectionKey(key)
}
