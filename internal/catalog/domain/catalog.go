package domain

import (
	"errors"

	"github.com/dmehra2102/restaurant-pos/pkg/money"
)

var ErrItemNotFound = errors.New("menu item not found")

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Branch struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Variation is a priced alternative of an item, e.g. a size. Its price
// replaces the item's base price.
type Variation struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Price money.Amount `json:"price"`
}

// Addon is an optional extra whose price is added on top.
type Addon struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Price money.Amount `json:"price"`
}

type Item struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	CategoryID string       `json:"categoryId,omitempty"`
	Image      string       `json:"image,omitempty"`
	Price      money.Amount `json:"price"`
	Available  bool         `json:"available"`
	Variations []Variation  `json:"variations"`
	Addons     []Addon      `json:"addons"`
}

func (i Item) Variation(id string) (Variation, bool) {
	for _, v := range i.Variations {
		if v.ID == id {
			return v, true
		}
	}
	return Variation{}, false
}

func (i Item) Addon(id string) (Addon, bool) {
	for _, a := range i.Addons {
		if a.ID == id {
			return a, true
		}
	}
	return Addon{}, false
}

// Menu is an id index over a list of items.
type Menu map[string]Item

func NewMenu(items []Item) Menu {
	m := make(Menu, len(items))
	for _, it := range items {
		m[it.ID] = it
	}
	return m
}

func (m Menu) Get(id string) (Item, error) {
	it, ok := m[id]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return it, nil
}
