package report

import (
	"testing"
	"time"

	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jst = time.FixedZone("JST", 9*60*60)

func txn(id int64, typ model.TransactionType, amount int64, categoryID string, date time.Time) model.Transaction {
	catalog := model.DefaultCatalog()
	return model.Transaction{
		ID:       id,
		Type:     typ,
		Amount:   amount,
		Category: catalog.Lookup(typ, categoryID),
		Date:     date,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, jst)
}

func TestSummarize_MonthView(t *testing.T) {
	ledger := []model.Transaction{
		txn(3, model.TypeIncome, 250000, "salary", day(2024, 5, 1)),
		txn(2, model.TypeExpense, 3500, "food", day(2024, 5, 1)),
		txn(1, model.TypeExpense, 800, "cafe", day(2024, 4, 30)),
	}

	summary := Summarize(ledger, SelectMonth(Month{Year: 2024, Month: time.May}, jst), model.DefaultCatalog())

	assert.Equal(t, Month{Year: 2024, Month: time.May}, summary.Month)
	assert.Equal(t, int64(250000), summary.TotalIncome)
	assert.Equal(t, int64(3500), summary.TotalExpense)
	assert.Equal(t, int64(246500), summary.Balance)
	assert.True(t, summary.HasExpense())

	require.Len(t, summary.Breakdown, 1)
	assert.Equal(t, "food", summary.Breakdown[0].Category.ID)
	assert.Equal(t, int64(3500), summary.Breakdown[0].Total)
	assert.InDelta(t, 100.0, summary.Breakdown[0].Percentage, 1e-9)

	require.Len(t, summary.Transactions, 2)
	assert.Equal(t, int64(3), summary.Transactions[0].ID)
	assert.Equal(t, int64(2), summary.Transactions[1].ID)
}

func TestSummarize_TotalsMatchFilteredSums(t *testing.T) {
	ledger := []model.Transaction{
		txn(1, model.TypeIncome, 250000, "salary", day(2024, 5, 25)),
		txn(2, model.TypeIncome, 30000, "bonus", day(2024, 5, 2)),
		txn(3, model.TypeExpense, 1200, "transport", day(2024, 5, 3)),
		txn(4, model.TypeExpense, 9800, "social", day(2024, 5, 31)),
		txn(5, model.TypeExpense, 5000, "hobby", day(2024, 6, 1)),
		txn(6, model.TypeIncome, 1000, "other_income", day(2023, 5, 10)),
	}

	summary := Summarize(ledger, SelectMonth(Month{Year: 2024, Month: time.May}, jst), model.DefaultCatalog())

	var income, expense int64
	for _, tx := range summary.Transactions {
		assert.Equal(t, Month{Year: 2024, Month: time.May}, MonthOf(tx.Date, jst))
		switch tx.Type {
		case model.TypeIncome:
			income += tx.Amount
		case model.TypeExpense:
			expense += tx.Amount
		}
	}
	assert.Len(t, summary.Transactions, 4)
	assert.Equal(t, income, summary.TotalIncome)
	assert.Equal(t, expense, summary.TotalExpense)
	assert.Equal(t, summary.TotalIncome-summary.TotalExpense, summary.Balance)
}

func TestSummarize_NegativeBalance(t *testing.T) {
	ledger := []model.Transaction{
		txn(1, model.TypeIncome, 1000, "salary", day(2024, 5, 1)),
		txn(2, model.TypeExpense, 4000, "credit", day(2024, 5, 2)),
	}
	summary := Summarize(ledger, NewSelection(day(2024, 5, 20)), model.DefaultCatalog())
	assert.Equal(t, int64(-3000), summary.Balance)
}

func TestFilterMonth_UsesLocation(t *testing.T) {
	// 2024-04-30 20:00 UTC is already May 1st in Tokyo.
	late := time.Date(2024, 4, 30, 20, 0, 0, 0, time.UTC)
	txns := []model.Transaction{txn(1, model.TypeExpense, 100, "food", late)}

	assert.Len(t, FilterMonth(txns, Month{Year: 2024, Month: time.May}, jst), 1)
	assert.Empty(t, FilterMonth(txns, Month{Year: 2024, Month: time.May}, time.UTC))
}

func TestBreakdown(t *testing.T) {
	catalog := model.DefaultCatalog()

	t.Run("percentages sum to 100", func(t *testing.T) {
		txns := []model.Transaction{
			txn(1, model.TypeExpense, 1000, "food", day(2024, 5, 1)),
			txn(2, model.TypeExpense, 1000, "daily", day(2024, 5, 1)),
			txn(3, model.TypeExpense, 1000, "cafe", day(2024, 5, 1)),
			txn(4, model.TypeIncome, 99999, "salary", day(2024, 5, 1)),
		}
		rows := Breakdown(txns, catalog)
		require.Len(t, rows, 3)

		var sum float64
		for _, r := range rows {
			assert.Positive(t, r.Total)
			sum += r.Percentage
		}
		assert.InDelta(t, 100.0, sum, 1e-6)
	})

	t.Run("sorted by total with catalog order on ties", func(t *testing.T) {
		txns := []model.Transaction{
			txn(1, model.TypeExpense, 500, "cafe", day(2024, 5, 1)),
			txn(2, model.TypeExpense, 2000, "hobby", day(2024, 5, 1)),
			txn(3, model.TypeExpense, 500, "food", day(2024, 5, 1)),
			txn(4, model.TypeExpense, 300, "hobby", day(2024, 5, 2)),
		}
		rows := Breakdown(txns, catalog)

		ids := make([]string, len(rows))
		for i, r := range rows {
			ids[i] = r.Category.ID
		}
		assert.Equal(t, []string{"hobby", "food", "cafe"}, ids)
		assert.Equal(t, int64(2300), rows[0].Total)
	})

	t.Run("unknown category counts as other", func(t *testing.T) {
		stray := txn(1, model.TypeExpense, 700, "food", day(2024, 5, 1))
		stray.Category = model.Category{ID: "pets", Name: "ペット"}

		rows := Breakdown([]model.Transaction{stray}, catalog)
		require.Len(t, rows, 1)
		assert.Equal(t, "other", rows[0].Category.ID)
	})

	t.Run("no expenses", func(t *testing.T) {
		txns := []model.Transaction{txn(1, model.TypeIncome, 250000, "salary", day(2024, 5, 1))}
		assert.Empty(t, Breakdown(txns, catalog))
		assert.Empty(t, Breakdown(nil, catalog))

		summary := Summarize(txns, NewSelection(day(2024, 5, 1)), catalog)
		assert.False(t, summary.HasExpense())
		assert.Zero(t, summary.TotalExpense)
		for _, r := range summary.Breakdown {
			assert.Zero(t, r.Percentage)
		}
	})
}

func TestNewestFirst(t *testing.T) {
	txns := []model.Transaction{
		txn(1, model.TypeExpense, 100, "food", day(2024, 5, 2)),
		txn(2, model.TypeExpense, 200, "food", day(2024, 5, 9)),
		txn(3, model.TypeExpense, 300, "food", day(2024, 5, 2)),
	}

	sorted := NewestFirst(txns)
	ids := []int64{sorted[0].ID, sorted[1].ID, sorted[2].ID}
	assert.Equal(t, []int64{2, 1, 3}, ids)
	assert.Equal(t, int64(1), txns[0].ID, "input is not reordered")
}
