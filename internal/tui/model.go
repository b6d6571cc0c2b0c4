// Package tui is the interactive kakeibo screen: a home view with the
// month's balance and records, an add form and a spending report.
package tui

import (
	"log/slog"

	"github.com/Veraticus/kakeibo/internal/ledger"
	"github.com/Veraticus/kakeibo/internal/report"
	"github.com/Veraticus/kakeibo/internal/tui/components"
	"github.com/Veraticus/kakeibo/internal/tui/themes"
	"github.com/Veraticus/kakeibo/internal/tui/viewmodel"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// State represents the current screen.
type State int

const (
	StateHome State = iota
	StateAdd
	StateStats
	StateConfirmDelete
	StateHelp
)

// Model holds the main TUI state.
type Model struct {
	theme         themes.Theme
	lastError     error
	ledger        *ledger.Ledger
	changes       <-chan bool
	config        Config
	selection     report.Selection
	summary       report.Summary
	home          viewmodel.HomeView
	pendingDelete viewmodel.TransactionRow
	status        string
	help          help.Model
	keymap        KeyMap
	list          components.TransactionList
	form          components.AddForm
	stats         components.StatsPanel
	width         int
	height        int
	state         State
	prevState     State
	quitting      bool
}

// newModel creates a model showing the current month of l.
func newModel(l *ledger.Ledger, cfg Config) Model {
	m := Model{
		ledger:    l,
		config:    cfg,
		theme:     cfg.Theme,
		keymap:    DefaultKeyMap(),
		help:      help.New(),
		state:     StateHome,
		selection: report.NewSelection(cfg.Now().In(cfg.Location)),
		list:      components.NewTransactionList(cfg.Theme),
		stats:     components.NewStatsPanel(cfg.Theme),
		form:      components.NewAddForm(l.Catalog(), cfg.Theme, cfg.Now().In(cfg.Location)),
		width:     cfg.Width,
		height:    cfg.Height,
	}
	m.handleResize()
	m.refresh()
	return m
}

// Init starts listening for ledger changes.
func (m Model) Init() tea.Cmd {
	return waitForChange(m.changes)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.ForceQuit) {
			m.quitting = true
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.handleResize()
		return m, nil

	case ledgerChangedMsg:
		m.refresh()
		if msg.external {
			m.status = "他のウィンドウで更新されました"
		}
		return m, waitForChange(m.changes)

	case components.SubmitMsg:
		m.form.Reset()
		m.state = StateHome
		return m, addTransaction(m.ledger, msg)

	case components.CancelMsg:
		m.state = StateHome
		return m, nil

	case transactionAddedMsg:
		m.lastError = msg.err
		if msg.err != nil {
			slog.Warn("failed to save transaction", "id", msg.txn.ID, "error", msg.err)
		} else {
			m.status = "記録しました"
		}
		m.refresh()
		return m, nil

	case transactionDeletedMsg:
		m.lastError = msg.err
		if msg.err != nil {
			slog.Warn("failed to delete transaction", "id", msg.id, "error", msg.err)
		} else if msg.removed {
			m.status = "削除しました"
		}
		m.refresh()
		return m, nil
	}

	if m.state == StateAdd {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The form consumes every key, including letters typed into the memo.
	if m.state == StateAdd {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}

	m.status = ""

	switch m.state {
	case StateConfirmDelete:
		switch {
		case key.Matches(msg, m.keymap.Confirm):
			m.state = StateHome
			return m, deleteTransaction(m.ledger, m.pendingDelete.ID, true)
		case key.Matches(msg, m.keymap.Decline):
			m.state = StateHome
		}
		return m, nil

	case StateHelp:
		if key.Matches(msg, m.keymap.Help, m.keymap.Back, m.keymap.Quit) {
			m.state = m.prevState
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.prevState = m.state
		m.state = StateHelp
		return m, nil
	case key.Matches(msg, m.keymap.PrevMonth):
		m.changeMonth(-1)
		return m, nil
	case key.Matches(msg, m.keymap.NextMonth):
		m.changeMonth(1)
		return m, nil
	case key.Matches(msg, m.keymap.Add):
		m.openForm()
		return m, nil
	}

	switch m.state {
	case StateHome:
		switch {
		case key.Matches(msg, m.keymap.Up):
			m.list.MoveUp()
		case key.Matches(msg, m.keymap.Down):
			m.list.MoveDown()
		case key.Matches(msg, m.keymap.Delete):
			if row, ok := m.list.Selected(); ok {
				m.pendingDelete = row
				m.state = StateConfirmDelete
			}
		case key.Matches(msg, m.keymap.Stats):
			m.state = StateStats
		}
	case StateStats:
		if key.Matches(msg, m.keymap.Back) {
			m.state = StateHome
		}
	}
	return m, nil
}

// changeMonth moves the browsed month by diff.
func (m *Model) changeMonth(diff int) {
	m.selection = m.selection.Shift(diff)
	m.refresh()
}

// openForm shows a fresh add form dated today.
func (m *Model) openForm() {
	m.form = components.NewAddForm(m.ledger.Catalog(), m.theme, m.config.Now().In(m.config.Location))
	m.form.Resize(m.width - 4)
	m.state = StateAdd
}

// refresh recomputes the month view from the ledger.
func (m *Model) refresh() {
	m.summary = report.Summarize(m.ledger.List(), m.selection, m.ledger.Catalog())
	m.home = viewmodel.NewHomeView(m.summary, m.config.Location)
	m.list.SetRows(m.home.Rows)
	m.stats.SetView(viewmodel.NewStatsView(m.summary))
}

// handleResize adjusts component sizes when terminal resizes.
func (m *Model) handleResize() {
	contentWidth := max(m.width-4, 20)
	// Header box, card title and status bar.
	listHeight := max(m.height-14, 2)

	m.list.Resize(contentWidth, listHeight)
	m.stats.Resize(contentWidth)
	m.form.Resize(contentWidth)
	m.help.Width = m.width
}

// Summary returns the month currently shown.
func (m Model) Summary() report.Summary {
	return m.summary
}
