package components

import (
	"strings"

	"github.com/Veraticus/kakeibo/internal/tui/themes"
	"github.com/Veraticus/kakeibo/internal/tui/viewmodel"
	"github.com/charmbracelet/lipgloss"
)

// TransactionList shows the month's records with a movable cursor.
type TransactionList struct {
	theme  themes.Theme
	rows   []viewmodel.TransactionRow
	cursor int
	offset int
	width  int
	height int
}

// NewTransactionList creates an empty list.
func NewTransactionList(theme themes.Theme) TransactionList {
	return TransactionList{theme: theme, width: 60, height: 10}
}

// SetRows replaces the rows, keeping the cursor on the same transaction
// when it is still present.
func (l *TransactionList) SetRows(rows []viewmodel.TransactionRow) {
	var selected int64
	if row, ok := l.Selected(); ok {
		selected = row.ID
	}

	l.rows = rows
	l.cursor = 0
	for i, r := range rows {
		if r.ID == selected {
			l.cursor = i
			break
		}
	}
	l.clampOffset()
}

// Rows returns the rows shown.
func (l TransactionList) Rows() []viewmodel.TransactionRow {
	return l.rows
}

// Cursor returns the index of the highlighted row.
func (l TransactionList) Cursor() int {
	return l.cursor
}

// Selected returns the highlighted row.
func (l TransactionList) Selected() (viewmodel.TransactionRow, bool) {
	if l.cursor < 0 || l.cursor >= len(l.rows) {
		return viewmodel.TransactionRow{}, false
	}
	return l.rows[l.cursor], true
}

// MoveUp moves the cursor up one row.
func (l *TransactionList) MoveUp() {
	if l.cursor > 0 {
		l.cursor--
		l.clampOffset()
	}
}

// MoveDown moves the cursor down one row.
func (l *TransactionList) MoveDown() {
	if l.cursor < len(l.rows)-1 {
		l.cursor++
		l.clampOffset()
	}
}

// Resize sets the list's size in cells; each row takes two lines.
func (l *TransactionList) Resize(width, height int) {
	l.width = width
	l.height = max(height, 2)
	l.clampOffset()
}

func (l *TransactionList) visibleRows() int {
	return max(l.height/2, 1)
}

func (l *TransactionList) clampOffset() {
	visible := l.visibleRows()
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+visible {
		l.offset = l.cursor - visible + 1
	}
	l.offset = max(l.offset, 0)
}

// View renders the list.
func (l TransactionList) View() string {
	if len(l.rows) == 0 {
		return lipgloss.JoinVertical(lipgloss.Center,
			l.theme.Normal.Render("今月の記録はまだありません"),
			l.theme.Subtitle.Render("a キーで追加しましょう"))
	}

	end := min(l.offset+l.visibleRows(), len(l.rows))
	lines := make([]string, 0, (end-l.offset)*2)
	for i := l.offset; i < end; i++ {
		lines = append(lines, l.renderRow(l.rows[i], i == l.cursor)...)
	}
	return strings.Join(lines, "\n")
}

func (l TransactionList) renderRow(row viewmodel.TransactionRow, selected bool) []string {
	amountColor := l.theme.Expense
	if row.Income {
		amountColor = l.theme.Income
	}
	amount := lipgloss.NewStyle().Bold(true).Foreground(amountColor).Render(row.AmountLabel)

	left := lipgloss.NewStyle().Foreground(row.Color).Render(row.Icon) + " " + row.CategoryName
	if selected {
		left = l.theme.Selected.Render("▸ " + row.Icon + " " + row.CategoryName)
	}

	gap := max(l.width-lipgloss.Width(left)-lipgloss.Width(amount), 1)
	meta := row.DateLabel
	if row.Note != "" {
		meta += "  " + row.Note
	}

	return []string{
		left + strings.Repeat(" ", gap) + amount,
		"   " + l.theme.Subtitle.Render(meta),
	}
}
