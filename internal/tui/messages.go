package tui

import "github.com/Veraticus/kakeibo/internal/model"

// ledgerChangedMsg is sent after the ledger changes, whether by this
// process or another one sharing the storage.
type ledgerChangedMsg struct {
	external bool
}

type transactionAddedMsg struct {
	err error
	txn model.Transaction
}

type transactionDeletedMsg struct {
	err     error
	id      int64
	removed bool
}
