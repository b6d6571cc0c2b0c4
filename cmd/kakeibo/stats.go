package main

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/Veraticus/kakeibo/internal/cli"
	"github.com/Veraticus/kakeibo/internal/report"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show a month's spending by category",
		Long: `Show the month's expenses broken down by category, largest first,
with each category's share of the month's total spending.`,
		RunE: runStats,
	}

	cmd.Flags().StringP("month", "m", "", "month as YYYY-MM (default: current month)")

	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	monthFlag, _ := cmd.Flags().GetString("month")

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	sel, err := s.selection(monthFlag)
	if err != nil {
		return err
	}
	summary := s.summary(sel)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatTitle(cli.ChartIcon+" "+summary.Month.Label()+" 支出内訳"))
	if !summary.HasExpense() {
		fmt.Fprintln(out, cli.SubtleStyle.Render("データがありません"))
		return nil
	}

	writeBreakdown(out, summary)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "支出合計  %s\n", cli.ExpenseStyle.Render(report.FormatYen(summary.TotalExpense)))
	return nil
}

func writeBreakdown(out io.Writer, summary report.Summary) {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(20), progress.WithoutPercentage())

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer func() {
		if flushErr := w.Flush(); flushErr != nil {
			slog.Error("failed to flush table writer", "error", flushErr)
		}
	}()

	for _, row := range summary.Breakdown {
		fmt.Fprintf(w, "%s\t%s\t%5.1f%%\t%s\n",
			row.Category.Name,
			report.FormatYen(row.Total),
			row.Percentage,
			bar.ViewAs(row.Percentage/100))
	}
}
