package summary

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCount renders n with thousands separators, e.g. 12,345.
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatValue renders v with thousands separators and two decimals.
func FormatValue(v float64) string {
	return printer.Sprintf("%.2f", v)
}
