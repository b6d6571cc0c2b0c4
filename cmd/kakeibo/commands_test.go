package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupCLI points the global configuration at a fresh SQLite database and
// pins the command clock to 2024-05-15 12:00 JST.
func setupCLI(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", dir)

	viper.Reset()
	viper.Set("storage.backend", "sqlite")
	viper.Set("storage.path", filepath.Join(dir, "kakeibo.db"))
	viper.Set("storage.poll_interval", "10ms")
	viper.Set("ledger.demo_data", false)
	viper.Set("display.timezone", "Asia/Tokyo")
	viper.Set("logging.level", "error")

	jst := time.FixedZone("JST", 9*60*60)
	fixed := time.Date(2024, 5, 15, 12, 0, 0, 0, jst)
	origNow := now
	now = func() time.Time { return fixed }

	t.Cleanup(func() {
		now = origNow
		cfgFile = ""
		viper.Reset()
	})
}

// runCLI executes the command tree with args and returns its output.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, "", args...)
	require.NoError(t, err, out)
	return out
}

func TestAddAndList(t *testing.T) {
	setupCLI(t)

	out := mustRun(t, "add", "--amount", "3500", "--category", "food", "--note", "スーパー", "--date", "2024-05-03")
	assert.Contains(t, out, "Recorded 食費 ¥3,500 2024-05-03")

	mustRun(t, "add", "-t", "income", "-a", "250000", "-c", "salary", "-d", "2024-05-01")
	mustRun(t, "add", "-a", "800", "-c", "cafe", "-d", "2024-04-30")

	out = mustRun(t, "list", "--month", "2024-05")
	assert.Contains(t, out, "2024年5月")
	assert.Contains(t, out, "スーパー")
	assert.Contains(t, out, "-¥3,500")
	assert.Contains(t, out, "+¥250,000")
	assert.Contains(t, out, "¥246,500")
	assert.NotContains(t, out, "カフェ")

	// Newest first.
	assert.Less(t, strings.Index(out, "05/03"), strings.Index(out, "05/01"))

	out = mustRun(t, "list", "--month", "2024-03")
	assert.Contains(t, out, "記録がありません")
}

func TestAdd_DefaultsToTodayAndFirstCategory(t *testing.T) {
	setupCLI(t)

	out := mustRun(t, "add", "--amount", "1200")
	assert.Contains(t, out, "Recorded 食費 ¥1,200 2024-05-15")
}

func TestAdd_Rejects(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		args    []string
	}{
		{
			name:    "zero amount",
			args:    []string{"add", "--amount", "0"},
			wantErr: common.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			args:    []string{"add", "--amount=-5"},
			wantErr: common.ErrInvalidAmount,
		},
		{
			name:    "income category on an expense",
			args:    []string{"add", "--amount", "100", "--category", "salary"},
			wantErr: common.ErrCategoryMismatch,
		},
		{
			name:    "unknown type",
			args:    []string{"add", "--amount", "100", "--type", "transfer"},
			wantErr: common.ErrUnknownTransactionType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupCLI(t)

			_, err := runCLI(t, "", tt.args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var userErr *common.UserError
			assert.ErrorAs(t, err, &userErr)

			out := mustRun(t, "list")
			assert.Contains(t, out, "記録がありません")
		})
	}
}

func TestAdd_InvalidDate(t *testing.T) {
	setupCLI(t)

	_, err := runCLI(t, "", "add", "--amount", "100", "--date", "05/01/2024")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --date")
}

func TestStats(t *testing.T) {
	setupCLI(t)

	mustRun(t, "add", "-a", "3000", "-c", "food", "-d", "2024-05-02")
	mustRun(t, "add", "-a", "1000", "-c", "cafe", "-d", "2024-05-03")
	mustRun(t, "add", "-t", "income", "-a", "50000", "-c", "bonus", "-d", "2024-05-03")

	out := mustRun(t, "stats", "--month", "2024-05")
	assert.Contains(t, out, "支出内訳")
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "25.0%")
	assert.Contains(t, out, "¥4,000")
	assert.NotContains(t, out, "ボーナス")
	assert.Less(t, strings.Index(out, "食費"), strings.Index(out, "カフェ"))

	out = mustRun(t, "stats", "--month", "2024-06")
	assert.Contains(t, out, "データがありません")
}

func TestMonth(t *testing.T) {
	setupCLI(t)

	mustRun(t, "add", "-a", "800", "-c", "cafe", "-d", "2024-04-30")

	out := mustRun(t, "month", "--shift", "-1")
	assert.Contains(t, out, "2024年4月 (2024-04)")
	assert.Contains(t, out, "1件")
	assert.Contains(t, out, "-¥800")

	out = mustRun(t, "month", "--month", "2024-01", "--shift", "-1")
	assert.Contains(t, out, "2023年12月 (2023-12)")

	_, err := runCLI(t, "", "month", "--month", "May")
	require.Error(t, err)
}

func TestDelete(t *testing.T) {
	setupCLI(t)

	mustRun(t, "add", "-a", "3500", "-c", "food", "-n", "スーパー")
	mustRun(t, "add", "-a", "800", "-c", "cafe", "-n", "スタバ")

	out := mustRun(t, "list")
	id := idOf(t, out, "スーパー")

	t.Run("unknown id", func(t *testing.T) {
		_, err := runCLI(t, "", "delete", "999")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("declined", func(t *testing.T) {
		out, err := runCLI(t, "n\n", "delete", id)
		require.NoError(t, err)
		assert.Contains(t, out, "この記録を削除しますか？")
		assert.Contains(t, out, "Operation canceled.")
		assert.Contains(t, mustRun(t, "list"), "スーパー")
	})

	t.Run("confirmed", func(t *testing.T) {
		out, err := runCLI(t, "y\n", "delete", id)
		require.NoError(t, err)
		assert.Contains(t, out, "Transaction "+id+" deleted")

		list := mustRun(t, "list")
		assert.NotContains(t, list, "スーパー")
		assert.Contains(t, list, "スタバ")
	})

	t.Run("force", func(t *testing.T) {
		id := idOf(t, mustRun(t, "list"), "スタバ")
		out := mustRun(t, "delete", "--force", id)
		assert.NotContains(t, out, "[y/N]")
		assert.Contains(t, mustRun(t, "list"), "記録がありません")
	})
}

func TestMigrate(t *testing.T) {
	setupCLI(t)

	out := mustRun(t, "migrate", "--status")
	assert.Contains(t, out, "Storage schema: 2")
	assert.Contains(t, out, "Ledger records: 2 (latest 2)")

	mustRun(t, "add", "-a", "800", "-c", "cafe")

	// Records written in the current layout carry no version marker yet.
	out = mustRun(t, "migrate", "--status")
	assert.Contains(t, out, "Stored keys: kakeibo_data\n")
	assert.Contains(t, out, "Ledger records: 1 (latest 2)")

	out = mustRun(t, "migrate")
	assert.Contains(t, out, "Records already current, marked as version 2")
	assert.Contains(t, mustRun(t, "list"), "カフェ")

	out = mustRun(t, "migrate", "--status")
	assert.Contains(t, out, "Stored keys: kakeibo_data, kakeibo_data_schema_version")
	assert.Contains(t, out, "Ledger records: 2 (latest 2)")

	out = mustRun(t, "migrate")
	assert.Contains(t, out, "Ledger already at version 2")
}

func TestVersion(t *testing.T) {
	setupCLI(t)
	assert.Equal(t, "kakeibo dev\n", mustRun(t, "version"))
}

// idOf finds the id column of the list row containing note.
func idOf(t *testing.T, list, note string) string {
	t.Helper()
	for _, line := range strings.Split(list, "\n") {
		if strings.Contains(line, note) {
			fields := strings.Fields(line)
			require.NotEmpty(t, fields)
			return fields[0]
		}
	}
	t.Fatalf("no row containing %q in:\n%s", note, list)
	return ""
}
