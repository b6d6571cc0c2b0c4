package report

import (
	"slices"
	"time"

	"github.com/Veraticus/kakeibo/internal/model"
)

// CategoryTotal is one row of the expense breakdown.
type CategoryTotal struct {
	Category   model.Category
	Total      int64
	Percentage float64
}

// Summary is the derived view of one month.
type Summary struct {
	Month        Month
	Transactions []model.Transaction
	Breakdown    []CategoryTotal
	TotalIncome  int64
	TotalExpense int64
	Balance      int64
}

// HasExpense reports whether the month has any spending.
func (s Summary) HasExpense() bool {
	return s.TotalExpense > 0
}

// FilterMonth returns the transactions dated within m in loc, preserving order.
func FilterMonth(txns []model.Transaction, m Month, loc *time.Location) []model.Transaction {
	out := make([]model.Transaction, 0, len(txns))
	for _, t := range txns {
		if m.Contains(t.Date, loc) {
			out = append(out, t)
		}
	}
	return out
}

// Total sums the amounts of transactions of type typ.
func Total(txns []model.Transaction, typ model.TransactionType) int64 {
	var sum int64
	for _, t := range txns {
		if t.Type == typ {
			sum += t.Amount
		}
	}
	return sum
}

// Breakdown totals expenses per category of the catalog's expense list.
// A transaction whose category is not in the list counts toward the
// fallback category. Categories with no spending are omitted; rows are
// ordered by total, largest first, ties in catalog order.
func Breakdown(txns []model.Transaction, catalog model.Catalog) []CategoryTotal {
	totals := make(map[string]int64)
	var totalExpense int64
	for _, t := range txns {
		if t.Type != model.TypeExpense {
			continue
		}
		cat := catalog.Lookup(model.TypeExpense, t.Category.ID)
		totals[cat.ID] += t.Amount
		totalExpense += t.Amount
	}

	rows := make([]CategoryTotal, 0, len(totals))
	for _, cat := range catalog.Expense {
		total := totals[cat.ID]
		if total == 0 {
			continue
		}
		var pct float64
		if totalExpense > 0 {
			pct = float64(total) / float64(totalExpense) * 100
		}
		rows = append(rows, CategoryTotal{Category: cat, Total: total, Percentage: pct})
	}

	slices.SortStableFunc(rows, func(a, b CategoryTotal) int {
		switch {
		case a.Total > b.Total:
			return -1
		case a.Total < b.Total:
			return 1
		default:
			return 0
		}
	})
	return rows
}

// Summarize derives the full month view from the ledger contents.
func Summarize(txns []model.Transaction, sel Selection, catalog model.Catalog) Summary {
	m := sel.Month()
	monthly := FilterMonth(txns, m, sel.Location())
	income := Total(monthly, model.TypeIncome)
	expense := Total(monthly, model.TypeExpense)

	return Summary{
		Month:        m,
		Transactions: monthly,
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      income - expense,
		Breakdown:    Breakdown(monthly, catalog),
	}
}

// NewestFirst returns a copy of txns ordered by date, latest first.
// Transactions with equal dates keep their relative order.
func NewestFirst(txns []model.Transaction) []model.Transaction {
	out := slices.Clone(txns)
	slices.SortStableFunc(out, func(a, b model.Transaction) int {
		return b.Date.Compare(a.Date)
	})
	return out
}
