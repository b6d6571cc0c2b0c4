package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/Veraticus/kakeibo/internal/config"
	"github.com/Veraticus/kakeibo/internal/ledger"
	"github.com/Veraticus/kakeibo/internal/report"
	"github.com/Veraticus/kakeibo/internal/storage"
	"github.com/spf13/viper"
)

// session is an open ledger together with the storage behind it.
type session struct {
	cfg     *config.Config
	backend storage.Backend
	ledger  *ledger.Ledger
}

// now is the clock used by commands.
var now = time.Now

// loadConfig resolves the configuration from the global viper instance.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, common.NewUserError("configuration error", err)
	}
	return cfg, nil
}

// initBackend opens the configured storage backend, running schema
// migrations where the backend has them.
func initBackend(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		if err := config.EnsureParentDir(cfg.Path); err != nil {
			return nil, err
		}
		store, err := storage.NewSQLiteBackend(cfg.Path, storage.WithPollInterval(cfg.PollInterval))
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return store, nil
	case config.BackendFile:
		return storage.NewFileBackend(cfg.Path)
	case config.BackendMemory:
		slog.Warn("Using in-memory storage; nothing will be saved")
		return storage.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownBackend, cfg.Backend)
	}
}

// openSession loads the configuration and opens the ledger. With watch
// set, the ledger follows changes written by other processes.
func openSession(ctx context.Context, watch bool) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	backend, err := initBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	slotOpts := []storage.SlotOption{}
	if cfg.OnCorrupt == config.OnCorruptClear {
		slotOpts = append(slotOpts, storage.WithCorruptPolicy(storage.ClearCorrupt))
	}
	if !watch {
		slotOpts = append(slotOpts, storage.WithoutWatch())
	}

	l, err := ledger.Open(ctx, backend,
		ledger.WithClock(now),
		ledger.WithDemoData(cfg.DemoData),
		ledger.WithLedgerLogger(slog.Default()),
		ledger.WithSlotOptions(slotOpts...))
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	return &session{cfg: cfg, backend: backend, ledger: l}, nil
}

func (s *session) Close() {
	s.ledger.Close()
	if err := s.backend.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}

// selection returns the month named by flag (YYYY-MM), or the current month.
func (s *session) selection(flag string) (report.Selection, error) {
	if flag == "" {
		return report.NewSelection(now().In(s.cfg.Location)), nil
	}
	m, err := report.ParseMonth(flag)
	if err != nil {
		return report.Selection{}, common.NewUserError("invalid --month", err)
	}
	return report.SelectMonth(m, s.cfg.Location), nil
}

func (s *session) summary(sel report.Selection) report.Summary {
	return report.Summarize(s.ledger.List(), sel, s.ledger.Catalog())
}
