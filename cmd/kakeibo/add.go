package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/kakeibo/internal/cli"
	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/report"
	"github.com/spf13/cobra"
)

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an income or expense",
		Long: `Record a transaction. The amount is in whole yen and must be positive.

Categories are given by id; run 'kakeibo add --help' to see them:
  expense: food, daily, transport, fashion, social, credit, hobby, cafe, other
  income:  salary, bonus, other_income`,
		Example: `  kakeibo add --amount 3500 --category food --note スーパー
  kakeibo add --type income --amount 250000 --category salary --date 2024-05-25`,
		RunE: runAdd,
	}

	cmd.Flags().StringP("type", "t", string(model.TypeExpense), "transaction type (expense, income)")
	cmd.Flags().Int64P("amount", "a", 0, "amount in yen")
	cmd.Flags().StringP("category", "c", "", "category id (default: first category of the type)")
	cmd.Flags().StringP("note", "n", "", "free-text note")
	cmd.Flags().StringP("date", "d", "", "date as YYYY-MM-DD (default: now)")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	typeFlag, _ := cmd.Flags().GetString("type")
	amount, _ := cmd.Flags().GetInt64("amount")
	categoryID, _ := cmd.Flags().GetString("category")
	note, _ := cmd.Flags().GetString("note")
	dateFlag, _ := cmd.Flags().GetString("date")

	typ := model.TransactionType(strings.ToLower(typeFlag))
	if !typ.Valid() {
		return common.NewUserError("invalid --type", fmt.Errorf("%w: %q", common.ErrUnknownTransactionType, typeFlag))
	}

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	catalog := s.ledger.Catalog()
	category := catalog.Default(typ)
	if categoryID != "" {
		var ok bool
		category, ok = catalog.Find(typ, categoryID)
		if !ok {
			return common.NewUserError("invalid --category",
				fmt.Errorf("%w: %q is not a %s category", common.ErrCategoryMismatch, categoryID, typ))
		}
	}

	var date time.Time
	if dateFlag != "" {
		// Midday keeps the date stable when viewed from nearby zones.
		day, err := time.ParseInLocation(time.DateOnly, dateFlag, s.cfg.Location)
		if err != nil {
			return common.NewUserError("invalid --date (want YYYY-MM-DD)", err)
		}
		date = day.Add(12 * time.Hour)
	}

	txn, err := s.ledger.Add(ctx, typ, amount, category, note, date)
	if err != nil {
		return common.NewUserError("transaction not recorded", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Recorded %s %s %s (id %d)",
		category.Name,
		report.FormatYen(txn.Amount),
		txn.Date.In(s.cfg.Location).Format(time.DateOnly),
		txn.ID)))
	return nil
}
