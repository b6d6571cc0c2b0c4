package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/Veraticus/kakeibo/internal/config"
	"github.com/Veraticus/kakeibo/internal/tui"
	"github.com/Veraticus/kakeibo/internal/tui/themes"
	"github.com/spf13/cobra"
)

func tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive budget book",
		Long: `Open the full-screen budget book: the month's balance and records,
an entry form, and the expense breakdown by category.

Changes made by other kakeibo processes sharing the same data appear
while the screen is open. Logs are written to logging.file.`,
		RunE: runTUI,
	}
}

func runTUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	s, err := openSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	restore, err := redirectLogs(s.cfg)
	if err != nil {
		return err
	}
	defer restore()

	return tui.Run(ctx, s.ledger,
		tui.WithTheme(themes.GetTheme(s.cfg.Theme)),
		tui.WithLocation(s.cfg.Location),
		tui.WithClock(now))
}

// redirectLogs sends log output to the configured log file while the
// alternate screen is active. The returned func restores stderr logging.
func redirectLogs(cfg *config.Config) (func(), error) {
	if err := config.EnsureParentDir(cfg.LogFile); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	if err := common.SetupLogger(f, cfg.LogLevel, cfg.LogFormat); err != nil {
		_ = f.Close()
		return nil, err
	}

	return func() {
		if err := common.SetupLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat); err != nil {
			fmt.Fprintf(os.Stderr, "failed to restore logging: %v\n", err)
		}
		if err := f.Close(); err != nil {
			slog.Error("failed to close log file", "error", err)
		}
	}, nil
}
