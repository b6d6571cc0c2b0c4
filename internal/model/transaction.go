package model

import (
	"fmt"
	"time"
)

// isoLayout matches the millisecond UTC form produced by JavaScript's
// Date.prototype.toISOString, which existing data files use.
const isoLayout = "2006-01-02T15:04:05.000Z"

// Transaction is a single income or expense record with its category
// resolved against the catalog. Transactions are never mutated after creation.
type Transaction struct {
	Date     time.Time
	Category Category
	Type     TransactionType
	Note     string
	ID       int64
	Amount   int64 // yen; always positive
}

// StoredTransaction is the compact on-disk form of a Transaction: the
// category is referenced by id only.
type StoredTransaction struct {
	Type       TransactionType `json:"type"`
	CategoryID string          `json:"categoryId"`
	Date       string          `json:"date"`
	Note       string          `json:"note"`
	ID         int64           `json:"id"`
	Amount     int64           `json:"amount"`
}

// FormatDate renders t in the persisted ISO 8601 form.
func FormatDate(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// ParseDate parses a persisted date. RFC 3339 with or without fractional
// seconds is accepted, as is a bare calendar date.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
