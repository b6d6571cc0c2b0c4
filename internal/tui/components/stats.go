package components

import (
	"strings"

	"github.com/Veraticus/kakeibo/internal/tui/themes"
	"github.com/Veraticus/kakeibo/internal/tui/viewmodel"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// StatsPanel renders the month's spending by category with a bar per row.
type StatsPanel struct {
	theme themes.Theme
	view  viewmodel.StatsView
	width int
}

// NewStatsPanel creates an empty panel.
func NewStatsPanel(theme themes.Theme) StatsPanel {
	return StatsPanel{theme: theme, width: 60}
}

// SetView replaces the data shown.
func (p *StatsPanel) SetView(v viewmodel.StatsView) {
	p.view = v
}

// Resize sets the panel width.
func (p *StatsPanel) Resize(width int) {
	p.width = width
}

// View renders the panel.
func (p StatsPanel) View() string {
	v := p.view
	total := p.theme.RoundedBox.Render(lipgloss.JoinVertical(lipgloss.Center,
		p.theme.Subtitle.Render("支出合計"),
		lipgloss.NewStyle().Bold(true).Foreground(p.theme.Expense).Render(v.TotalLabel)))

	sections := []string{
		p.theme.Subtitle.Render(v.YearLabel),
		total,
		"",
		p.theme.Title.Render("カテゴリ別内訳"),
	}

	if !v.HasExpense {
		sections = append(sections, p.theme.Subtitle.Render("データがありません"))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	barWidth := max(p.width-4, 10)
	for _, stat := range v.CategoryStats {
		bar := progress.New(
			progress.WithSolidFill(string(stat.Color)),
			progress.WithWidth(barWidth),
			progress.WithoutPercentage(),
		)

		name := lipgloss.NewStyle().Foreground(stat.Color).Render(stat.Icon) + " " + stat.CategoryName
		figures := p.theme.Bold.Render(stat.TotalLabel) + " " + p.theme.Subtitle.Render(stat.PercentLabel)
		gap := max(barWidth-lipgloss.Width(name)-lipgloss.Width(figures), 1)

		sections = append(sections,
			name+strings.Repeat(" ", gap)+figures,
			bar.ViewAs(stat.Ratio))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
