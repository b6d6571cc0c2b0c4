package ledger_test

import (
	"strconv"
	"time"

	"github.com/Veraticus/kakeibo/internal/testutil"
)

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func testClock() *testutil.Clock {
	return testutil.NewClock(time.Date(2024, 5, 15, 12, 0, 0, 0, testutil.JST))
}
