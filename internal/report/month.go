// Package report derives month views from the ledger: the transactions in a
// month, income and expense totals, and the expense breakdown by category.
// Everything here is a pure function of its inputs.
package report

import (
	"fmt"
	"time"
)

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the calendar month containing t in loc.
func MonthOf(t time.Time, loc *time.Location) Month {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	return Month{Year: local.Year(), Month: local.Month()}
}

// Contains reports whether t falls in m when viewed in loc.
func (m Month) Contains(t time.Time, loc *time.Location) bool {
	return MonthOf(t, loc) == m
}

// String renders the month as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Label renders the month for display, e.g. 2024年5月.
func (m Month) Label() string {
	return fmt.Sprintf("%d年%d月", m.Year, int(m.Month))
}

// ParseMonth parses YYYY-MM.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q (want YYYY-MM): %w", s, err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// Selection is the month currently being browsed. It keeps a full date, not
// just a month, so that stepping behaves exactly like calendar arithmetic on
// that date: stepping from the 31st into a shorter month spills over into
// the following month, as time.Time.AddDate does.
type Selection struct {
	date time.Time
}

// NewSelection selects the month containing t, in t's location.
func NewSelection(t time.Time) Selection {
	return Selection{date: t}
}

// SelectMonth selects the first day of m in loc.
func SelectMonth(m Month, loc *time.Location) Selection {
	if loc == nil {
		loc = time.Local
	}
	return Selection{date: time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)}
}

// Date returns the underlying date.
func (s Selection) Date() time.Time {
	return s.date
}

// Month returns the selected calendar month.
func (s Selection) Month() Month {
	return Month{Year: s.date.Year(), Month: s.date.Month()}
}

// Location returns the zone months are evaluated in.
func (s Selection) Location() *time.Location {
	return s.date.Location()
}

// Shift moves the selection by diff months (-1 previous, +1 next).
func (s Selection) Shift(diff int) Selection {
	return Selection{date: s.date.AddDate(0, diff, 0)}
}
