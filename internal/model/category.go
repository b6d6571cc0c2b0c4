// Package model defines the core domain models used throughout the application.
package model

import (
	"errors"
	"fmt"
)

// ErrInvalidCatalog is returned when a category catalog is malformed.
var ErrInvalidCatalog = errors.New("invalid category catalog")

// TransactionType indicates whether a transaction moves money in or out.
type TransactionType string

const (
	// TypeExpense is money spent.
	TypeExpense TransactionType = "expense"
	// TypeIncome is money received.
	TypeIncome TransactionType = "income"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TypeExpense || t == TypeIncome
}

// Category is a fixed classification tag for a transaction.
// Presentation (icon, color) is resolved by the view layer from the ID.
type Category struct {
	ID   string
	Name string
}

// Catalog holds the two ordered category lists. The last entry of each list
// is the fallback used when a stored category id no longer resolves.
type Catalog struct {
	Expense []Category
	Income  []Category
}

// DefaultCatalog returns the built-in category lists.
func DefaultCatalog() Catalog {
	return Catalog{
		Expense: []Category{
			{ID: "food", Name: "食費"},
			{ID: "daily", Name: "日用品"},
			{ID: "transport", Name: "交通費"},
			{ID: "fashion", Name: "衣服"},
			{ID: "social", Name: "交際費"},
			{ID: "credit", Name: "カード"},
			{ID: "hobby", Name: "趣味"},
			{ID: "cafe", Name: "カフェ"},
			{ID: "other", Name: "その他"},
		},
		Income: []Category{
			{ID: "salary", Name: "給与"},
			{ID: "bonus", Name: "ボーナス"},
			{ID: "other_income", Name: "その他"},
		},
	}
}

// For returns the list of categories that apply to the given type.
func (c Catalog) For(t TransactionType) []Category {
	if t == TypeIncome {
		return c.Income
	}
	return c.Expense
}

// Fallback returns the last category of the list for t.
func (c Catalog) Fallback(t TransactionType) Category {
	list := c.For(t)
	if len(list) == 0 {
		return Category{}
	}
	return list[len(list)-1]
}

// Find returns the category with the given id in the list for t.
func (c Catalog) Find(t TransactionType, id string) (Category, bool) {
	for _, cat := range c.For(t) {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

// Lookup resolves id against the list for t, falling back to the list's
// last entry when the id is unknown.
func (c Catalog) Lookup(t TransactionType, id string) Category {
	if cat, ok := c.Find(t, id); ok {
		return cat
	}
	return c.Fallback(t)
}

// Default returns the first category of the list for t, used to preselect a
// category when the entry type changes.
func (c Catalog) Default(t TransactionType) Category {
	list := c.For(t)
	if len(list) == 0 {
		return Category{}
	}
	return list[0]
}

// Validate checks that each list is non-empty and its ids are unique.
func (c Catalog) Validate() error {
	for _, t := range []TransactionType{TypeExpense, TypeIncome} {
		list := c.For(t)
		if len(list) == 0 {
			return fmt.Errorf("%w: no %s categories", ErrInvalidCatalog, t)
		}
		seen := make(map[string]struct{}, len(list))
		for _, cat := range list {
			if cat.ID == "" {
				return fmt.Errorf("%w: empty %s category id", ErrInvalidCatalog, t)
			}
			if _, dup := seen[cat.ID]; dup {
				return fmt.Errorf("%w: duplicate %s category id %q", ErrInvalidCatalog, t, cat.ID)
			}
			seen[cat.ID] = struct{}{}
		}
	}
	return nil
}
