package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/Veraticus/kakeibo/internal/ledger"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/storage"
	"github.com/Veraticus/kakeibo/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func declined() ledger.Confirmer {
	return ledger.ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })
}

func TestLedger_AddPrepends(t *testing.T) {
	tl := testutil.SetupLedger(t)
	catalog := tl.Ledger.Catalog()

	first := tl.MustAdd(model.TypeIncome, 250000, "salary", "給与", testutil.Day(2024, 5, 1))
	before := tl.Ledger.Len()

	second, err := tl.Ledger.Add(context.Background(), model.TypeExpense, 3500,
		catalog.Lookup(model.TypeExpense, "food"), "スーパー", testutil.Day(2024, 5, 2))
	require.NoError(t, err)

	list := tl.Ledger.List()
	require.Len(t, list, before+1)
	assert.Equal(t, second, list[0])
	assert.Equal(t, first, list[1])

	assert.Equal(t, model.TypeExpense, second.Type)
	assert.Equal(t, int64(3500), second.Amount)
	assert.Equal(t, "food", second.Category.ID)
	assert.Equal(t, "スーパー", second.Note)
	assert.True(t, second.Date.Equal(testutil.Day(2024, 5, 2)))
}

func TestLedger_AddDefaultsDateToNow(t *testing.T) {
	tl := testutil.SetupLedger(t)

	txn := tl.MustAdd(model.TypeExpense, 500, "cafe", "", time.Time{})
	assert.True(t, txn.Date.Equal(time.Date(2024, 5, 15, 12, 0, 0, 0, testutil.JST)))
}

func TestLedger_AddRejects(t *testing.T) {
	tl := testutil.SetupLedger(t)
	catalog := tl.Ledger.Catalog()
	food := catalog.Lookup(model.TypeExpense, "food")

	tests := []struct {
		name     string
		typ      model.TransactionType
		category model.Category
		wantErr  error
		amount   int64
	}{
		{name: "zero amount", typ: model.TypeExpense, amount: 0, category: food, wantErr: common.ErrInvalidAmount},
		{name: "negative amount", typ: model.TypeExpense, amount: -100, category: food, wantErr: common.ErrInvalidAmount},
		{name: "unknown type", typ: "transfer", amount: 100, category: food, wantErr: common.ErrUnknownTransactionType},
		{name: "expense category on income", typ: model.TypeIncome, amount: 100, category: food, wantErr: common.ErrCategoryMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tl.Ledger.Add(context.Background(), tt.typ, tt.amount, tt.category, "", time.Time{})
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, tl.Ledger.Len(), "rejected add must not change the ledger")
		})
	}

	_, ok, err := tl.Backend.Get(context.Background(), ledger.StorageKey)
	require.NoError(t, err)
	assert.False(t, ok, "rejected adds must not persist anything")
}

func TestLedger_IDsAreUniqueWithinOneMillisecond(t *testing.T) {
	tl := testutil.SetupLedger(t)
	cat := tl.Ledger.Catalog().Lookup(model.TypeExpense, "food")

	seen := make(map[int64]bool)
	for i := 0; i < 5; i++ {
		// The clock does not advance between these adds.
		txn, err := tl.Ledger.Add(context.Background(), model.TypeExpense, 100, cat, "", time.Time{})
		require.NoError(t, err)
		assert.False(t, seen[txn.ID], "duplicate id %d", txn.ID)
		seen[txn.ID] = true
	}
}

func TestLedger_AddThenDeleteRestoresList(t *testing.T) {
	tl := testutil.SetupLedger(t)
	tl.MustAdd(model.TypeIncome, 250000, "salary", "給与", testutil.Day(2024, 5, 1))
	tl.MustAdd(model.TypeExpense, 800, "cafe", "スタバ", testutil.Day(2024, 4, 30))

	before := tl.Ledger.List()
	storedBefore, _, err := tl.Backend.Get(context.Background(), ledger.StorageKey)
	require.NoError(t, err)

	added := tl.MustAdd(model.TypeExpense, 3500, "food", "スーパー", testutil.Day(2024, 5, 1))

	removed, err := tl.Ledger.Delete(context.Background(), added.ID, ledger.AlwaysConfirm)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, before, tl.Ledger.List())

	storedAfter, _, err := tl.Backend.Get(context.Background(), ledger.StorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, string(storedBefore), string(storedAfter))
}

func TestLedger_Delete(t *testing.T) {
	t.Run("declined confirmation keeps transaction", func(t *testing.T) {
		tl := testutil.SetupLedger(t)
		txn := tl.MustAdd(model.TypeExpense, 3500, "food", "", testutil.Day(2024, 5, 1))

		removed, err := tl.Ledger.Delete(context.Background(), txn.ID, declined())
		require.NoError(t, err)
		assert.False(t, removed)
		assert.Equal(t, 1, tl.Ledger.Len())
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		tl := testutil.SetupLedger(t)
		tl.MustAdd(model.TypeExpense, 3500, "food", "", testutil.Day(2024, 5, 1))
		before := tl.Ledger.List()

		removed, err := tl.Ledger.Delete(context.Background(), 42, ledger.AlwaysConfirm)
		require.NoError(t, err)
		assert.False(t, removed)
		assert.Equal(t, before, tl.Ledger.List())
	})

	t.Run("confirmation prompt is shown", func(t *testing.T) {
		tl := testutil.SetupLedger(t)
		txn := tl.MustAdd(model.TypeExpense, 3500, "food", "", testutil.Day(2024, 5, 1))

		var prompt string
		confirm := ledger.ConfirmFunc(func(_ context.Context, p string) (bool, error) {
			prompt = p
			return true, nil
		})
		removed, err := tl.Ledger.Delete(context.Background(), txn.ID, confirm)
		require.NoError(t, err)
		assert.True(t, removed)
		assert.Equal(t, ledger.DeletePrompt, prompt)
		assert.Equal(t, 0, tl.Ledger.Len())
	})

	t.Run("confirmation error is returned", func(t *testing.T) {
		tl := testutil.SetupLedger(t)
		txn := tl.MustAdd(model.TypeExpense, 3500, "food", "", testutil.Day(2024, 5, 1))

		boom := errors.New("stdin closed")
		_, err := tl.Ledger.Delete(context.Background(), txn.ID,
			ledger.ConfirmFunc(func(context.Context, string) (bool, error) { return false, boom }))
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 1, tl.Ledger.Len())
	})

	t.Run("nil confirmer is rejected", func(t *testing.T) {
		tl := testutil.SetupLedger(t)
		_, err := tl.Ledger.Delete(context.Background(), 1, nil)
		require.Error(t, err)
	})
}

func TestLedger_StoresCompactRecords(t *testing.T) {
	tl := testutil.SetupLedger(t)
	txn := tl.MustAdd(model.TypeExpense, 3500, "food", "スーパー", time.Date(2024, 5, 1, 9, 0, 0, 0, testutil.JST))

	raw, ok, err := tl.Backend.Get(context.Background(), ledger.StorageKey)
	require.NoError(t, err)
	require.True(t, ok)

	assert.JSONEq(t, `[{
		"id": `+itoa(txn.ID)+`,
		"type": "expense",
		"amount": 3500,
		"categoryId": "food",
		"date": "2024-05-01T00:00:00.000Z",
		"note": "スーパー"
	}]`, string(raw))
}

func TestLedger_UnknownCategoryFallsBackToOther(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	require.NoError(t, backend.Set(ctx, ledger.StorageKey, []byte(`[
		{"id":1,"type":"expense","amount":500,"categoryId":"pets","date":"2024-05-01T00:00:00.000Z","note":""},
		{"id":2,"type":"income","amount":900,"categoryId":"lottery","date":"2024-05-01T00:00:00.000Z","note":""}
	]`)))

	l, err := ledger.Open(ctx, backend, ledger.WithDemoData(false), ledger.WithLedgerLogger(common.Discard()))
	require.NoError(t, err)
	defer l.Close()

	list := l.List()
	require.Len(t, list, 2)
	assert.Equal(t, "other", list[0].Category.ID)
	assert.Equal(t, "other_income", list[1].Category.ID)
}

func TestLedger_DemoDataOnEmptyStorage(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	clock := testutil.NewClock(time.Date(2024, 5, 15, 12, 0, 0, 0, testutil.JST))

	l, err := ledger.Open(ctx, backend, ledger.WithClock(clock.Now), ledger.WithLedgerLogger(common.Discard()))
	require.NoError(t, err)
	defer l.Close()

	list := l.List()
	require.Len(t, list, 4)
	assert.Equal(t, int64(250000), list[0].Amount)
	assert.Equal(t, "salary", list[0].Category.ID)
	assert.Equal(t, "cafe", list[2].Category.ID)
	assert.True(t, list[2].Date.Equal(clock.Now().Add(-24*time.Hour)))

	_, ok, err := backend.Get(ctx, ledger.StorageKey)
	require.NoError(t, err)
	assert.False(t, ok, "demo data is not persisted until the first write")
}

func TestLedger_CorruptStorageFallsBack(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name     string
		opts     []storage.SlotOption
		wantKept bool
	}{
		{name: "keep", wantKept: true},
		{name: "clear", opts: []storage.SlotOption{storage.WithCorruptPolicy(storage.ClearCorrupt)}, wantKept: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			backend := storage.NewMemoryBackend()
			require.NoError(t, backend.Set(ctx, ledger.StorageKey, []byte(`[{"id":`)))

			l, err := ledger.Open(ctx, backend,
				ledger.WithLedgerLogger(common.Discard()),
				ledger.WithSlotOptions(tc.opts...))
			require.NoError(t, err)
			defer l.Close()

			assert.Equal(t, 4, l.Len(), "falls back to demo data")

			_, ok, err := backend.Get(ctx, ledger.StorageKey)
			require.NoError(t, err)
			assert.Equal(t, tc.wantKept, ok)
		})
	}
}

func TestLedger_SyncsAcrossProcesses(t *testing.T) {
	tab1 := testutil.SetupLedger(t)
	tab2 := tab1.OpenSibling()

	var external []bool
	unsubscribe := tab1.Ledger.Subscribe(func(ext bool) { external = append(external, ext) })
	defer unsubscribe()

	added := tab2.MustAdd(model.TypeExpense, 3500, "food", "", testutil.Day(2024, 5, 1))

	require.Len(t, tab1.Ledger.List(), 1)
	assert.Equal(t, added, tab1.Ledger.List()[0])
	assert.Equal(t, []bool{true}, external)

	removed, err := tab1.Ledger.Delete(context.Background(), added.ID, ledger.AlwaysConfirm)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 0, tab2.Ledger.Len())
	assert.Equal(t, []bool{true, false}, external)
}

func TestLedger_GetAndListAreCopies(t *testing.T) {
	tl := testutil.SetupLedger(t)
	txn := tl.MustAdd(model.TypeExpense, 3500, "food", "", testutil.Day(2024, 5, 1))

	got, ok := tl.Ledger.Get(txn.ID)
	require.True(t, ok)
	assert.Equal(t, txn, got)

	_, ok = tl.Ledger.Get(txn.ID + 1)
	assert.False(t, ok)

	list := tl.Ledger.List()
	list[0].Amount = 1
	assert.Equal(t, int64(3500), tl.Ledger.List()[0].Amount)
}

func TestLedger_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := testutil.SetupSQLite(t)

	l, err := ledger.Open(ctx, backend, ledger.WithDemoData(false), ledger.WithLedgerLogger(common.Discard()))
	require.NoError(t, err)
	cat := l.Catalog().Lookup(model.TypeIncome, "bonus")
	added, err := l.Add(ctx, model.TypeIncome, 100000, cat, "夏", testutil.Day(2024, 6, 30))
	require.NoError(t, err)
	l.Close()

	reopened, err := ledger.Open(ctx, backend, ledger.WithDemoData(false), ledger.WithLedgerLogger(common.Discard()))
	require.NoError(t, err)
	defer reopened.Close()

	list := reopened.List()
	require.Len(t, list, 1)
	assert.Equal(t, added.ID, list[0].ID)
	assert.Equal(t, "bonus", list[0].Category.ID)
	assert.True(t, list[0].Date.Equal(added.Date))
}
