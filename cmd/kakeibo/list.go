package main

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/kakeibo/internal/cli"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/report"
	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a month's transactions",
		Long: `List the transactions dated in one month, newest first,
followed by the month's income, expense and balance.`,
		RunE: runList,
	}

	cmd.Flags().StringP("month", "m", "", "month as YYYY-MM (default: current month)")

	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
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
	fmt.Fprintln(out, cli.FormatTitle(summary.Month.Label()))

	if len(summary.Transactions) == 0 {
		fmt.Fprintln(out, cli.SubtleStyle.Render("記録がありません"))
	} else {
		writeTransactionTable(out, report.NewestFirst(summary.Transactions), s.cfg.Location)
	}

	fmt.Fprintln(out)
	writeTotals(out, summary)
	return nil
}

func writeTransactionTable(out io.Writer, txns []model.Transaction, loc *time.Location) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer func() {
		if flushErr := w.Flush(); flushErr != nil {
			slog.Error("failed to flush table writer", "error", flushErr)
		}
	}()

	header := cli.TableHeaderStyle
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		header.Render("ID"),
		header.Render("日付"),
		header.Render("カテゴリ"),
		header.Render("金額"),
		header.Render("メモ"))

	for _, t := range txns {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			t.ID,
			t.Date.In(loc).Format("01/02"),
			t.Category.Name,
			cli.FormatAmount(report.FormatYen(t.Amount), t.Type == model.TypeIncome),
			t.Note)
	}
}

func writeTotals(out io.Writer, summary report.Summary) {
	fmt.Fprintf(out, "収入  %s\n", cli.IncomeStyle.Render(report.FormatYen(summary.TotalIncome)))
	fmt.Fprintf(out, "支出  %s\n", cli.ExpenseStyle.Render(report.FormatYen(summary.TotalExpense)))
	fmt.Fprintf(out, "収支  %s\n", cli.TitleStyle.UnsetMargins().Render(report.FormatYen(summary.Balance)))
}
