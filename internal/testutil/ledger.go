package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/Veraticus/kakeibo/internal/ledger"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/storage"
)

// JST is the zone used by fixtures.
var JST = time.FixedZone("JST", 9*60*60)

// TestLedger bundles a ledger with the backend and clock behind it.
type TestLedger struct {
	Ledger  *ledger.Ledger
	Backend *storage.MemoryBackend
	Clock   *Clock
	t       *testing.T
}

// SetupLedger opens a ledger on a fresh in-memory backend with demo data
// disabled and the clock fixed at 2024-05-15 12:00 JST. Extra options are
// applied after the defaults.
//
// Example:
//
//	tl := testutil.SetupLedger(t)
//	tl.MustAdd(model.TypeExpense, 3500, "food", "スーパー", testutil.Day(2024, 5, 1))
func SetupLedger(t *testing.T, opts ...ledger.Option) *TestLedger {
	t.Helper()

	clock := NewClock(time.Date(2024, 5, 15, 12, 0, 0, 0, JST))
	backend := storage.NewMemoryBackend()
	return openLedger(t, backend, clock, opts...)
}

// OpenSibling opens a second ledger over the same data, as another process
// sharing the storage would.
func (tl *TestLedger) OpenSibling(opts ...ledger.Option) *TestLedger {
	tl.t.Helper()
	return openLedger(tl.t, tl.Backend.Context(), tl.Clock, opts...)
}

func openLedger(t *testing.T, backend *storage.MemoryBackend, clock *Clock, opts ...ledger.Option) *TestLedger {
	t.Helper()

	all := append([]ledger.Option{
		ledger.WithClock(clock.Now),
		ledger.WithDemoData(false),
		ledger.WithLedgerLogger(common.Discard()),
	}, opts...)

	l, err := ledger.Open(context.Background(), backend, all...)
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}

	t.Cleanup(func() {
		l.Close()
		_ = backend.Close()
	})

	return &TestLedger{Ledger: l, Backend: backend, Clock: clock, t: t}
}

// MustAdd adds a transaction whose category is looked up by id, failing the
// test on error. The clock advances one millisecond afterwards.
func (tl *TestLedger) MustAdd(typ model.TransactionType, amount int64, categoryID, note string, date time.Time) model.Transaction {
	tl.t.Helper()

	cat, ok := tl.Ledger.Catalog().Find(typ, categoryID)
	if !ok {
		tl.t.Fatalf("unknown %s category %q", typ, categoryID)
	}
	txn, err := tl.Ledger.Add(context.Background(), typ, amount, cat, note, date)
	if err != nil {
		tl.t.Fatalf("failed to add transaction: %v", err)
	}
	tl.Clock.Advance(time.Millisecond)
	return txn
}

// Day returns midday of the given date in JST.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, JST)
}

// SetupSQLite opens and migrates a SQLite backend in a temp directory.
func SetupSQLite(t *testing.T) *storage.SQLiteBackend {
	t.Helper()

	backend, err := storage.NewSQLiteBackend(filepath.Join(t.TempDir(), "kakeibo.db"),
		storage.WithPollInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := backend.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = backend.Close()
	})
	return backend
}
