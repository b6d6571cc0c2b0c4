package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/kakeibo/internal/cli"
	"github.com/Veraticus/kakeibo/internal/report"
	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow changes made by other kakeibo processes",
		Long: `Print the current month's totals whenever another kakeibo process
changes the shared data. Stop with Ctrl+C.`,
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	s, err := openSession(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer s.Close()

	handler := cli.NewInterruptHandler(out, "Stopped watching")
	ctx := handler.HandleInterrupts(cmd.Context())

	printTotals := func() {
		summary := s.summary(report.NewSelection(now().In(s.cfg.Location)))
		fmt.Fprintf(out, "%s  %s  %d件  収入 %s  支出 %s  収支 %s\n",
			now().In(s.cfg.Location).Format(time.TimeOnly),
			summary.Month.Label(),
			len(summary.Transactions),
			report.FormatYen(summary.TotalIncome),
			report.FormatYen(summary.TotalExpense),
			report.FormatYen(summary.Balance))
	}

	unsubscribe := s.ledger.Subscribe(func(external bool) {
		if external {
			printTotals()
		}
	})
	defer unsubscribe()

	fmt.Fprintln(out, cli.FormatTitle(cli.ChartIcon+" Watching "+s.cfg.Path))
	printTotals()

	<-ctx.Done()
	return nil
}
