package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Veraticus/kakeibo/internal/storage"
)

// SchemaVersion is the record layout this package reads and writes.
//
//	1: full category object embedded in each record ("category": {...})
//	2: category referenced by id ("categoryId": "food")
const SchemaVersion = 2

// RecordMigration upgrades raw ledger records by one schema version. Up
// reports whether it changed the record.
type RecordMigration struct {
	Up          func(record map[string]json.RawMessage) (map[string]json.RawMessage, bool, error)
	Description string
	Version     int
}

var recordMigrations = []RecordMigration{
	{
		Version:     2,
		Description: "Reference categories by id",
		Up:          compactCategory,
	},
}

// compactCategory replaces an embedded category object with its id.
// Records that are already compact pass through unchanged.
func compactCategory(record map[string]json.RawMessage) (map[string]json.RawMessage, bool, error) {
	raw, ok := record["category"]
	if !ok {
		return record, false, nil
	}
	if _, hasID := record["categoryId"]; !hasID {
		var category struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &category); err != nil {
			return nil, false, fmt.Errorf("invalid embedded category: %w", err)
		}
		id, err := json.Marshal(category.ID)
		if err != nil {
			return nil, false, err
		}
		record["categoryId"] = id
	}
	delete(record, "category")
	return record, true, nil
}

// MigrationResult summarizes a Migrate run.
type MigrationResult struct {
	FromVersion int
	ToVersion   int
	Records     int
	Applied     bool
	// Rewritten is false when every record was already current and only
	// the version marker was written.
	Rewritten   bool
}

// MigrateOption configures Migrate.
type MigrateOption func(*migrateOptions)

type migrateOptions struct {
	logger   *slog.Logger
	progress func(done, total int)
}

// WithMigrationLogger sets the logger for migration messages.
func WithMigrationLogger(l *slog.Logger) MigrateOption {
	return func(o *migrateOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithProgress reports per-record progress while migrating.
func WithProgress(fn func(done, total int)) MigrateOption {
	return func(o *migrateOptions) {
		o.progress = fn
	}
}

// Migrate upgrades the records stored under key to SchemaVersion. The
// version is kept under VersionKey. A slot without a version key but with
// data is treated as version 1. Nothing is written when the slot is empty
// or already current; undecodable data is left for the slot to handle.
func Migrate(ctx context.Context, backend storage.Backend, key string, opts ...MigrateOption) (MigrationResult, error) {
	o := migrateOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	result := MigrationResult{ToVersion: SchemaVersion}

	data, ok, err := backend.Get(ctx, key)
	if err != nil {
		return result, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		result.FromVersion = SchemaVersion
		return result, nil
	}

	version, err := readVersion(ctx, backend, VersionKey(key))
	if err != nil {
		return result, err
	}
	result.FromVersion = version
	if version >= SchemaVersion {
		return result, nil
	}

	var records []map[string]json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		o.logger.Warn("skipping migration of unreadable ledger data", "key", key, "error", err)
		return result, nil
	}
	result.Records = len(records)

	for _, m := range recordMigrations {
		if m.Version <= version {
			continue
		}
		for i, r := range records {
			upgraded, changed, err := m.Up(r)
			if err != nil {
				return result, fmt.Errorf("migration %d failed on record %d: %w", m.Version, i, err)
			}
			records[i] = upgraded
			result.Rewritten = result.Rewritten || changed
			if o.progress != nil {
				o.progress(i+1, len(records))
			}
		}
		o.logger.Info("Applied ledger migration",
			"version", m.Version,
			"description", m.Description,
			"records", len(records))
	}

	// Re-encoding reorders keys, so current data is left byte-for-byte
	// alone and other processes see no change.
	if result.Rewritten {
		out, err := json.Marshal(records)
		if err != nil {
			return result, fmt.Errorf("failed to encode migrated records: %w", err)
		}
		if err := backend.Set(ctx, key, out); err != nil {
			return result, fmt.Errorf("failed to write migrated records: %w", err)
		}
	}
	if err := backend.Set(ctx, VersionKey(key), []byte(strconv.Itoa(SchemaVersion))); err != nil {
		return result, fmt.Errorf("failed to write schema version: %w", err)
	}

	result.Applied = true
	return result, nil
}

// VersionKey returns the key holding the schema version for the ledger at key.
func VersionKey(key string) string {
	return key + "_schema_version"
}

func readVersion(ctx context.Context, backend storage.Backend, key string) (int, error) {
	raw, ok, err := backend.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return 1, nil
	}
	v, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid schema version %q: %w", raw, err)
	}
	return v, nil
}

// CurrentVersion reports the schema version of the records stored under
// key. An empty slot is reported as current.
func CurrentVersion(ctx context.Context, backend storage.Backend, key string) (int, error) {
	_, ok, err := backend.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return SchemaVersion, nil
	}
	return readVersion(ctx, backend, VersionKey(key))
}
