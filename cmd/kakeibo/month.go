package main

import (
	"fmt"

	"github.com/Veraticus/kakeibo/internal/cli"
	"github.com/spf13/cobra"
)

func monthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "month",
		Short: "Step through months and show their balance",
		Long: `Show the income, expense and balance of a month. --shift moves the
selection by whole months from --month (or from today), using calendar
arithmetic on the date: from the 31st, one month ahead can land two
months later.`,
		Example: `  kakeibo month --shift -1
  kakeibo month --month 2024-12 --shift 1`,
		RunE: runMonth,
	}

	cmd.Flags().StringP("month", "m", "", "starting month as YYYY-MM (default: current month)")
	cmd.Flags().IntP("shift", "s", 0, "months to move (negative for earlier)")

	return cmd
}

func runMonth(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	monthFlag, _ := cmd.Flags().GetString("month")
	shift, _ := cmd.Flags().GetInt("shift")

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	sel, err := s.selection(monthFlag)
	if err != nil {
		return err
	}
	summary := s.summary(sel.Shift(shift))

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%s (%s)", summary.Month.Label(), summary.Month)))
	fmt.Fprintf(out, "%d件\n", len(summary.Transactions))
	writeTotals(out, summary)
	return nil
}

