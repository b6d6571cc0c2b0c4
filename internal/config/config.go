package config

import (
	"fmt"
	"time"

	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Corrupt-slot policies.
const (
	// OnCorruptKeep falls back to the initial value and leaves the slot untouched.
	OnCorruptKeep = "keep"
	// OnCorruptClear removes the slot before falling back to the initial value.
	OnCorruptClear = "clear"
)

// Config is the resolved application configuration.
type Config struct {
	Location     *time.Location
	Backend      string
	Path         string
	OnCorrupt    string
	LogLevel     string
	LogFormat    string
	LogFile      string
	Theme        string
	PollInterval time.Duration
	DemoData     bool
}

// defaultPaths is where each backend keeps its data when storage.path is unset.
var defaultPaths = map[string]string{
	BackendSQLite: "$HOME/.local/share/kakeibo/kakeibo.db",
	BackendFile:   "$HOME/.local/share/kakeibo/data",
}

// SetDefaults registers default values on v. storage.path has no fixed
// default; it depends on the backend.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", BackendSQLite)
	v.SetDefault("storage.poll_interval", time.Second)
	v.SetDefault("storage.on_corrupt", OnCorruptKeep)
	v.SetDefault("ledger.demo_data", true)
	v.SetDefault("display.timezone", "Local")
	v.SetDefault("display.theme", "default")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "$HOME/.local/share/kakeibo/kakeibo.log")
}

// Load reads the configuration from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		Backend:      v.GetString("storage.backend"),
		PollInterval: v.GetDuration("storage.poll_interval"),
		OnCorrupt:    v.GetString("storage.on_corrupt"),
		DemoData:     v.GetBool("ledger.demo_data"),
		LogLevel:     v.GetString("logging.level"),
		LogFormat:    v.GetString("logging.format"),
		LogFile:      ExpandPath(v.GetString("logging.file")),
		Theme:        v.GetString("display.theme"),
	}

	path := v.GetString("storage.path")
	if path == "" {
		path = defaultPaths[cfg.Backend]
	}
	cfg.Path = ExpandPath(path)

	loc, err := time.LoadLocation(v.GetString("display.timezone"))
	if err != nil {
		return nil, fmt.Errorf("%w: display.timezone: %w", common.ErrInvalidConfig, err)
	}
	cfg.Location = loc

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for unsupported values.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendFile:
		if c.Path == "" {
			return fmt.Errorf("%w: storage.path is required for the %s backend", common.ErrInvalidConfig, c.Backend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: storage.backend %q", common.ErrInvalidConfig, c.Backend)
	}

	switch c.OnCorrupt {
	case OnCorruptKeep, OnCorruptClear:
	default:
		return fmt.Errorf("%w: storage.on_corrupt %q", common.ErrInvalidConfig, c.OnCorrupt)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: storage.poll_interval must be positive", common.ErrInvalidConfig)
	}

	if _, err := common.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
