// Package components holds the TUI building blocks: the add form, the
// transaction list and the spending report panel.
package components

import (
	"time"

	"github.com/Veraticus/kakeibo/internal/model"
)

// SubmitMsg is sent when the add form is submitted with a valid amount.
type SubmitMsg struct {
	Date     time.Time
	Category model.Category
	Type     model.TransactionType
	Note     string
	Amount   int64
}

// CancelMsg is sent when the user leaves the add form without submitting.
type CancelMsg struct{}
