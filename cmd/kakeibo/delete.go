package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Veraticus/kakeibo/internal/cli"
	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/Veraticus/kakeibo/internal/ledger"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/report"
	"github.com/spf13/cobra"
)

func deleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Long: `Delete a transaction by id. You will be asked to confirm unless --force
is given. Deleted transactions cannot be recovered.`,
		Args: cobra.ExactArgs(1),
		RunE: runDelete,
	}

	cmd.Flags().BoolP("force", "f", false, "Skip confirmation prompt")

	return cmd
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return common.NewUserError("invalid transaction id", err)
	}
	force, _ := cmd.Flags().GetBool("force")

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	txn, ok := s.ledger.Get(id)
	if !ok {
		return common.NewUserError(fmt.Sprintf("transaction %d", id), common.ErrNotFound)
	}

	sign := "-"
	if txn.Type == model.TypeIncome {
		sign = "+"
	}
	fmt.Fprintln(out, cli.RenderBox(txn.Category.Name, fmt.Sprintf("%s\n%s%s\n%s",
		txn.Date.In(s.cfg.Location).Format(time.DateOnly),
		sign, report.FormatYen(txn.Amount),
		txn.Note)))

	var confirm ledger.Confirmer = cli.NewPrompter(cmd.InOrStdin(), out)
	if force {
		confirm = ledger.AlwaysConfirm
	}

	removed, err := s.ledger.Delete(ctx, id, confirm)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if !removed {
		fmt.Fprintln(out, "Operation canceled.")
		return nil
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Transaction %d deleted", id)))
	return nil
}
