package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/kakeibo/internal/cli"
	"github.com/Veraticus/kakeibo/internal/ledger"
	"github.com/Veraticus/kakeibo/internal/storage"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade stored data to the current format",
		Long: `Bring the storage schema and the stored transactions up to date.

Older data kept the whole category with every transaction; migrated
records keep only the category id. Opening the ledger migrates
automatically, this command does it explicitly and shows progress.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current versions without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	status, _ := cmd.Flags().GetBool("status")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slog.Info("Starting migration",
		"backend", cfg.Backend,
		"path", cfg.Path,
		"status_only", status)

	backend, err := initBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			slog.Error("failed to close storage", "error", err)
		}
	}()

	if status {
		fmt.Fprintln(out, cli.FormatTitle("Migration status"))
		if sqlite, ok := backend.(*storage.SQLiteBackend); ok {
			v, err := sqlite.SchemaVersion(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Storage schema: %d\n", v)
			keys, err := sqlite.Keys(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Stored keys: %s\n", strings.Join(keys, ", "))
		}
		v, err := ledger.CurrentVersion(ctx, backend, ledger.StorageKey)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Ledger records: %d (latest %d)\n", v, ledger.SchemaVersion)
		return nil
	}

	var bar *progressbar.ProgressBar
	result, err := ledger.Migrate(ctx, backend, ledger.StorageKey,
		ledger.WithMigrationLogger(slog.Default()),
		ledger.WithProgress(func(done, total int) {
			if bar == nil {
				bar = cli.NewProgressBar(out, total, "Migrating records")
			}
			_ = bar.Set(done)
		}))
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if !result.Applied {
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Ledger already at version %d", result.ToVersion)))
		return nil
	}
	if !result.Rewritten {
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Records already current, marked as version %d", result.ToVersion)))
		return nil
	}
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Migrated %d records from version %d to %d",
		result.Records, result.FromVersion, result.ToVersion)))
	return nil
}
