package tui

import (
	"strconv"

	"github.com/Veraticus/kakeibo/internal/ledger"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	var keys help.KeyMap = m.keymap

	switch m.state {
	case StateHome:
		content = m.renderHome()
	case StateAdd:
		content = m.form.View()
		keys = m.form.KeyMap()
	case StateStats:
		content = m.renderStats()
	case StateConfirmDelete:
		content = m.renderConfirmDelete()
	case StateHelp:
		content = m.renderHelp()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Padding(0, 1).Render(content),
		m.renderStatusBar(keys))
}

// renderMonthSelector renders "‹ 2024年5月 ›".
func (m Model) renderMonthSelector(label string) string {
	arrow := lipgloss.NewStyle().Foreground(m.theme.Muted)
	return arrow.Render("‹ ") + m.theme.Title.Render(label) + arrow.Render(" ›")
}

func (m Model) renderHome() string {
	hv := m.home

	balanceColor := m.theme.Foreground
	if hv.Negative {
		balanceColor = m.theme.Expense
	}
	balance := lipgloss.NewStyle().Bold(true).Foreground(balanceColor).Render(hv.BalanceLabel)

	summaryRow := lipgloss.JoinHorizontal(lipgloss.Top,
		m.theme.Subtitle.Render("▲ 収入 ")+lipgloss.NewStyle().Foreground(m.theme.Income).Render(hv.IncomeLabel),
		"    ",
		m.theme.Subtitle.Render("▼ 支出 ")+lipgloss.NewStyle().Foreground(m.theme.Expense).Render(hv.ExpenseLabel),
	)

	header := m.theme.RoundedBox.Render(lipgloss.JoinVertical(lipgloss.Center,
		m.renderMonthSelector(hv.MonthLabel),
		"",
		m.theme.Subtitle.Render("今月の残高"),
		balance,
		"",
		summaryRow,
	))

	cardTitle := m.theme.Bold.Render("最近の記録") + "  " +
		m.theme.Subtitle.Render(strconv.Itoa(hv.Count())+"件")

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		cardTitle,
		m.list.View(),
	)
}

func (m Model) renderStats() string {
	title := m.theme.Title.Render("支出レポート") + "  " +
		m.renderMonthSelector(strconv.Itoa(int(m.summary.Month.Month))+"月")
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		m.stats.View(),
	)
}

func (m Model) renderConfirmDelete() string {
	row := m.pendingDelete
	details := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Bold.Render(ledger.DeletePrompt),
		"",
		row.Icon+" "+row.CategoryName+"  "+row.AmountLabel,
		m.theme.Subtitle.Render(row.DateLabel+"  "+row.Note),
		"",
		m.theme.Subtitle.Render("[y] はい  [n] いいえ"),
	)
	return m.theme.RoundedBox.BorderForeground(m.theme.Expense).Render(details)
}

func (m Model) renderHelp() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Title.Render("キー操作"),
		"",
		m.help.FullHelpView(m.keymap.FullHelp()),
		"",
		m.theme.Title.Render("記録を追加"),
		"",
		m.help.FullHelpView(m.form.KeyMap().FullHelp()),
	)
}

func (m Model) renderStatusBar(keys help.KeyMap) string {
	line := m.help.View(keys)
	switch {
	case m.lastError != nil:
		line = m.theme.StatusError.Render("保存に失敗しました: "+m.lastError.Error()) + "  " + line
	case m.status != "":
		line = m.theme.StatusInfo.Render(m.status) + "  " + line
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(line)
}
