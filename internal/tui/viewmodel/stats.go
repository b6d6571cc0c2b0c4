package viewmodel

import (
	"fmt"
	"strconv"

	"github.com/Veraticus/kakeibo/internal/report"
	"github.com/Veraticus/kakeibo/internal/tui/themes"
	"github.com/charmbracelet/lipgloss"
)

// StatsView represents the spending report for one month.
type StatsView struct {
	YearLabel     string
	MonthLabel    string
	TotalLabel    string
	CategoryStats []CategoryStat
	HasExpense    bool
}

// CategoryStat represents statistics for a single category.
type CategoryStat struct {
	Icon         string
	CategoryName string
	TotalLabel   string
	PercentLabel string
	Color        lipgloss.Color
	Ratio        float64 // 0..1, for progress bars
}

// NewStatsView builds the report screen for summary.
func NewStatsView(summary report.Summary) StatsView {
	stats := make([]CategoryStat, len(summary.Breakdown))
	for i, row := range summary.Breakdown {
		style := themes.GetCategoryStyle(row.Category.ID)
		stats[i] = CategoryStat{
			Icon:         style.Icon,
			Color:        style.Color,
			CategoryName: row.Category.Name,
			TotalLabel:   report.FormatYen(row.Total),
			PercentLabel: fmt.Sprintf("%.1f%%", row.Percentage),
			Ratio:        row.Percentage / 100,
		}
	}

	return StatsView{
		YearLabel:     strconv.Itoa(summary.Month.Year) + "年",
		MonthLabel:    strconv.Itoa(int(summary.Month.Month)) + "月",
		TotalLabel:    report.FormatYen(summary.TotalExpense),
		CategoryStats: stats,
		HasExpense:    summary.HasExpense(),
	}
}
