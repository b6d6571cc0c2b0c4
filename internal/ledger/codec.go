package ledger

import (
	"log/slog"
	"time"

	"github.com/Veraticus/kakeibo/internal/model"
)

// toStored converts a transaction to its compact storage record.
func toStored(t model.Transaction) model.StoredTransaction {
	return model.StoredTransaction{
		ID:         t.ID,
		Type:       t.Type,
		Amount:     t.Amount,
		CategoryID: t.Category.ID,
		Date:       model.FormatDate(t.Date),
		Note:       t.Note,
	}
}

// fromStored expands a storage record, resolving the category id against
// catalog. Unknown ids resolve to the list's fallback category.
func fromStored(s model.StoredTransaction, catalog model.Catalog, logger *slog.Logger) model.Transaction {
	date, err := model.ParseDate(s.Date)
	if err != nil {
		logger.Warn("stored transaction has unreadable date", "id", s.ID, "error", err)
		date = time.Time{}
	}
	return model.Transaction{
		ID:       s.ID,
		Type:     s.Type,
		Amount:   s.Amount,
		Category: catalog.Lookup(s.Type, s.CategoryID),
		Date:     date,
		Note:     s.Note,
	}
}

func hydrate(records []model.StoredTransaction, catalog model.Catalog, logger *slog.Logger) []model.Transaction {
	out := make([]model.Transaction, len(records))
	for i, r := range records {
		out[i] = fromStored(r, catalog, logger)
	}
	return out
}
