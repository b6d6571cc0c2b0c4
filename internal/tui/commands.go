package tui

import (
	"context"
	"time"

	"github.com/Veraticus/kakeibo/internal/ledger"
	"github.com/Veraticus/kakeibo/internal/tui/components"
	tea "github.com/charmbracelet/bubbletea"
)

const storageTimeout = 10 * time.Second

// waitForChange blocks until the ledger reports a change.
func waitForChange(changes <-chan bool) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		external, ok := <-changes
		if !ok {
			return nil
		}
		return ledgerChangedMsg{external: external}
	}
}

// addTransaction records a submitted form.
func addTransaction(l *ledger.Ledger, sub components.SubmitMsg) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()

		txn, err := l.Add(ctx, sub.Type, sub.Amount, sub.Category, sub.Note, sub.Date)
		return transactionAddedMsg{txn: txn, err: err}
	}
}

// deleteTransaction removes id. The user has already answered the
// confirmation dialog, so the ledger's confirm step replays that answer.
func deleteTransaction(l *ledger.Ledger, id int64, answer bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()

		answered := ledger.ConfirmFunc(func(context.Context, string) (bool, error) {
			return answer, nil
		})
		removed, err := l.Delete(ctx, id, answered)
		return transactionDeletedMsg{id: id, removed: removed, err: err}
	}
}
