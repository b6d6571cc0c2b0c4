// Package viewmodel turns month summaries into display-ready values so
// the TUI views only deal with strings and flags.
package viewmodel

import (
	"time"

	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/report"
	"github.com/Veraticus/kakeibo/internal/tui/themes"
	"github.com/charmbracelet/lipgloss"
)

// TransactionRow is one line of the home list.
type TransactionRow struct {
	Icon         string
	CategoryName string
	DateLabel    string
	AmountLabel  string
	Note         string
	Color        lipgloss.Color
	ID           int64
	Income       bool
}

// HomeView is the home screen: balance header plus the month's records.
type HomeView struct {
	MonthLabel   string
	IncomeLabel  string
	ExpenseLabel string
	BalanceLabel string
	Rows         []TransactionRow
	Negative     bool
}

// Count returns the number of records shown.
func (hv HomeView) Count() int {
	return len(hv.Rows)
}

// IsEmpty reports whether the month has no records.
func (hv HomeView) IsEmpty() bool {
	return len(hv.Rows) == 0
}

// NewHomeView builds the home screen for summary, with dates shown in loc.
func NewHomeView(summary report.Summary, loc *time.Location) HomeView {
	txns := report.NewestFirst(summary.Transactions)
	rows := make([]TransactionRow, len(txns))
	for i, t := range txns {
		rows[i] = NewTransactionRow(t, loc)
	}

	return HomeView{
		MonthLabel:   summary.Month.Label(),
		IncomeLabel:  report.FormatYen(summary.TotalIncome),
		ExpenseLabel: report.FormatYen(summary.TotalExpense),
		BalanceLabel: report.FormatYen(summary.Balance),
		Negative:     summary.Balance < 0,
		Rows:         rows,
	}
}

// NewTransactionRow formats one transaction. Income is shown with a plus
// sign and expenses with a minus sign.
func NewTransactionRow(t model.Transaction, loc *time.Location) TransactionRow {
	style := themes.GetCategoryStyle(t.Category.ID)
	income := t.Type == model.TypeIncome
	sign := "-"
	if income {
		sign = "+"
	}
	if loc == nil {
		loc = time.Local
	}

	return TransactionRow{
		ID:           t.ID,
		Icon:         style.Icon,
		Color:        style.Color,
		CategoryName: t.Category.Name,
		DateLabel:    t.Date.In(loc).Format("2006/01/02"),
		AmountLabel:  sign + report.FormatYen(t.Amount),
		Note:         t.Note,
		Income:       income,
	}
}
