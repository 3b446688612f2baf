// Package money converts and formats currency amounts for display.
package money

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// DefaultDZDToGBP is the fixed Algerian dinar to pound sterling rate used when none is configured.
	DefaultDZDToGBP = 0.0056
)

var printer = message.NewPrinter(language.English)

// Convert applies an exchange rate to an amount.
func Convert(amount, rate float64) float64 {
	return amount * rate
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Format renders amount with thousands separators and two decimals, prefixed by symbol.
func Format(symbol string, amount float64) string {
	return printer.Sprintf("%s%.2f", symbol, amount)
}

// FormatCode renders amount followed by an ISO currency code, e.g. "450,000.00 DZD".
func FormatCode(amount float64, code string) string {
	return printer.Sprintf("%.2f %s", amount, code)
}

// FormatDays renders a duration in days with one decimal.
func FormatDays(days float64) string {
	return printer.Sprintf("%.1f days", days)
}
