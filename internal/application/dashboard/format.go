package dashboard

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// formatCount formats an integer count
// Example: 1234 -> "1234"
func formatCount(n int) string {
	return strconv.Itoa(n)
}

// formatMoney formats an amount as dollars with thousands separators
// Example: 1234.5 -> "$1,234.50"
func formatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + printer.Sprintf("$%.2f", d.Round(2).InexactFloat64())
}

// formatScore formats an average review score
// Example: 4.333 -> "4.33"
func formatScore(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// formatPercent formats a value that is already a percentage
// Example: 98.0198 -> "98.02%"
func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func floatPtr(v float64) *float64 {
	return &v
}
