package report

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var yenPrinter = message.NewPrinter(language.Japanese)

// FormatYen renders an amount as yen with Japanese digit grouping, e.g. ¥1,000.
func FormatYen(amount int64) string {
	if amount < 0 {
		return yenPrinter.Sprintf("-¥%d", -amount)
	}
	return yenPrinter.Sprintf("¥%d", amount)
}
