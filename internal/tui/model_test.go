package tui

import (
	"testing"
	"time"

	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/testutil"
	"github.com/Veraticus/kakeibo/internal/tui/components"
	"github.com/Veraticus/kakeibo/internal/tui/themes"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupModel(t *testing.T) (Model, *testutil.TestLedger) {
	t.Helper()

	tl := testutil.SetupLedger(t)
	tl.MustAdd(model.TypeIncome, 250000, "salary", "給与", testutil.Day(2024, 5, 1))
	tl.MustAdd(model.TypeExpense, 3500, "food", "スーパー", testutil.Day(2024, 5, 3))
	tl.MustAdd(model.TypeExpense, 800, "cafe", "スタバ", testutil.Day(2024, 4, 30))

	cfg := Config{
		Theme:    themes.Default,
		Location: testutil.JST,
		Now:      tl.Clock.Now,
		Width:    80,
		Height:   30,
	}
	return newModel(tl.Ledger, cfg), tl
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

// send feeds msg to the model and then runs any resulting commands,
// feeding their messages back in, the way the program loop would.
func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()

	queue := []tea.Msg{msg}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		updated, cmd := m.Update(next)
		var ok bool
		m, ok = updated.(Model)
		require.True(t, ok)

		if cmd == nil {
			continue
		}
		out := cmd()
		if batch, isBatch := out.(tea.BatchMsg); isBatch {
			for _, c := range batch {
				if c != nil {
					queue = append(queue, c())
				}
			}
			continue
		}
		if out != nil {
			queue = append(queue, out)
		}
	}
	return m
}

func sendKeys(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		m = send(t, m, keyMsg(k))
	}
	return m
}

func TestModel_HomeShowsCurrentMonth(t *testing.T) {
	m, _ := setupModel(t)

	assert.Equal(t, StateHome, m.state)
	assert.Equal(t, int64(250000), m.Summary().TotalIncome)
	assert.Equal(t, int64(3500), m.Summary().TotalExpense)
	assert.Equal(t, int64(246500), m.Summary().Balance)
	assert.Len(t, m.list.Rows(), 2)

	view := m.View()
	assert.Contains(t, view, "2024年5月")
	assert.Contains(t, view, "¥246,500")
	assert.Contains(t, view, "2件")
}

func TestModel_ChangeMonth(t *testing.T) {
	m, _ := setupModel(t)

	m = sendKeys(t, m, "h")
	assert.Equal(t, time.April, m.Summary().Month.Month)
	assert.Equal(t, int64(800), m.Summary().TotalExpense)
	assert.Zero(t, m.Summary().TotalIncome)

	m = sendKeys(t, m, "l", "l")
	assert.Equal(t, time.June, m.Summary().Month.Month)
	assert.Empty(t, m.list.Rows())
	assert.Contains(t, m.View(), "今月の記録はまだありません")
}

func TestModel_AddTransaction(t *testing.T) {
	m, tl := setupModel(t)
	before := tl.Ledger.Len()

	m = sendKeys(t, m, "a")
	require.Equal(t, StateAdd, m.state)

	m = sendKeys(t, m, "right", "1", "2", "0", "0", "enter")

	assert.Equal(t, StateHome, m.state)
	require.Equal(t, before+1, tl.Ledger.Len())

	added := tl.Ledger.List()[0]
	assert.Equal(t, model.TypeExpense, added.Type)
	assert.Equal(t, int64(1200), added.Amount)
	assert.Equal(t, "daily", added.Category.ID)
	assert.Equal(t, int64(4700), m.Summary().TotalExpense)
	assert.Equal(t, "記録しました", m.status)
}

func TestModel_AddRefusesZeroAmount(t *testing.T) {
	m, tl := setupModel(t)
	before := tl.Ledger.Len()

	m = sendKeys(t, m, "a", "0", "enter")
	assert.Equal(t, StateAdd, m.state, "form stays open")
	assert.Equal(t, before, tl.Ledger.Len())

	m = sendKeys(t, m, "esc")
	assert.Equal(t, StateHome, m.state)
	assert.Equal(t, before, tl.Ledger.Len())
}

func TestModel_FormTypingDoesNotTriggerShortcuts(t *testing.T) {
	m, _ := setupModel(t)

	m = sendKeys(t, m, "a")
	// Focusing the memo starts a cursor blink; its commands are not run here.
	for _, k := range []string{"tab", "q", "?", "h"} {
		updated, _ := m.Update(keyMsg(k))
		m = updated.(Model)
	}
	assert.Equal(t, StateAdd, m.state)
	assert.False(t, m.quitting)
	assert.Equal(t, "q?h", m.form.Note())
}

func TestModel_DeleteWithConfirmation(t *testing.T) {
	m, tl := setupModel(t)
	before := tl.Ledger.Len()

	target, ok := m.list.Selected()
	require.True(t, ok)

	// Declining leaves everything in place.
	m = sendKeys(t, m, "d")
	require.Equal(t, StateConfirmDelete, m.state)
	assert.Contains(t, m.View(), "この記録を削除しますか？")
	m = sendKeys(t, m, "n")
	assert.Equal(t, StateHome, m.state)
	assert.Equal(t, before, tl.Ledger.Len())

	m = sendKeys(t, m, "d", "y")
	assert.Equal(t, StateHome, m.state)
	assert.Equal(t, before-1, tl.Ledger.Len())
	_, exists := tl.Ledger.Get(target.ID)
	assert.False(t, exists)
	assert.Len(t, m.list.Rows(), 1)
}

func TestModel_DeleteOnEmptyMonthDoesNothing(t *testing.T) {
	m, _ := setupModel(t)
	m = sendKeys(t, m, "l", "d")
	assert.Equal(t, StateHome, m.state)
}

func TestModel_StatsView(t *testing.T) {
	m, _ := setupModel(t)

	m = sendKeys(t, m, "s")
	require.Equal(t, StateStats, m.state)

	view := m.View()
	assert.Contains(t, view, "支出レポート")
	assert.Contains(t, view, "食費")
	assert.Contains(t, view, "100.0%")

	m = sendKeys(t, m, "l")
	assert.Contains(t, m.View(), "データがありません")

	m = sendKeys(t, m, "esc")
	assert.Equal(t, StateHome, m.state)
}

func TestModel_ExternalChangeRefreshes(t *testing.T) {
	m, tl := setupModel(t)
	other := tl.OpenSibling()

	other.MustAdd(model.TypeExpense, 500, "transport", "", testutil.Day(2024, 5, 10))

	m = send(t, m, ledgerChangedMsg{external: true})
	assert.Equal(t, int64(4000), m.Summary().TotalExpense)
	assert.Len(t, m.list.Rows(), 3)
	assert.Equal(t, "他のウィンドウで更新されました", m.status)
}

func TestModel_HelpAndQuit(t *testing.T) {
	m, _ := setupModel(t)

	m = sendKeys(t, m, "?")
	assert.Equal(t, StateHelp, m.state)
	assert.Contains(t, m.View(), "キー操作")

	m = sendKeys(t, m, "?")
	assert.Equal(t, StateHome, m.state)

	updated, cmd := m.Update(keyMsg("q"))
	m = updated.(Model)
	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestModel_SubmitMsgResetsForm(t *testing.T) {
	m, _ := setupModel(t)
	m = sendKeys(t, m, "a", "5")

	updated, cmd := m.Update(components.SubmitMsg{
		Type:     model.TypeExpense,
		Amount:   5,
		Category: m.ledger.Catalog().Default(model.TypeExpense),
		Date:     testutil.Day(2024, 5, 15),
	})
	m = updated.(Model)
	require.NotNil(t, cmd)
	assert.Empty(t, m.form.AmountText())
	assert.Equal(t, StateHome, m.state)
}
