package ledger

import (
	"time"

	"github.com/Veraticus/kakeibo/internal/model"
)

// DemoData returns the sample transactions shown on first launch, dated
// relative to now.
func DemoData(now time.Time, catalog model.Catalog) []model.StoredTransaction {
	day := 24 * time.Hour
	demo := []model.Transaction{
		{
			ID:       1,
			Type:     model.TypeIncome,
			Amount:   250000,
			Category: catalog.Lookup(model.TypeIncome, "salary"),
			Date:     now,
			Note:     "今月分給与",
		},
		{
			ID:       2,
			Type:     model.TypeExpense,
			Amount:   3500,
			Category: catalog.Lookup(model.TypeExpense, "food"),
			Date:     now,
			Note:     "スーパー",
		},
		{
			ID:       3,
			Type:     model.TypeExpense,
			Amount:   800,
			Category: catalog.Lookup(model.TypeExpense, "cafe"),
			Date:     now.Add(-day),
			Note:     "スタバ",
		},
		{
			ID:       4,
			Type:     model.TypeExpense,
			Amount:   12000,
			Category: catalog.Lookup(model.TypeExpense, "fashion"),
			Date:     now.Add(-2 * day),
			Note:     "電気代",
		},
	}

	out := make([]model.StoredTransaction, len(demo))
	for i, t := range demo {
		out[i] = toStored(t)
	}
	return out
}
