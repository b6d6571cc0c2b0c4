package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/kakeibo/internal/ledger"
	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the TUI for l until the user quits or ctx is canceled.
func Run(ctx context.Context, l *ledger.Ledger, opts ...Option) error {
	if l == nil {
		return fmt.Errorf("ledger is required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	// Changes only trigger a re-read of the ledger, so one pending
	// notification is enough.
	changes := make(chan bool, 1)
	unsubscribe := l.Subscribe(func(external bool) {
		select {
		case changes <- external:
		default:
		}
	})
	defer unsubscribe()

	m := newModel(l, cfg)
	m.changes = changes

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
