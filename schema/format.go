package schema

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCount rounds v to a whole number with grouped thousands: "12,345".
func FormatCount(v float64) string {
	return printer.Sprintf("%d", int64(math.Round(v)))
}

// FormatRate prints v with two decimals and grouped thousands: "1,234.57".
func FormatRate(v float64) string {
	return printer.Sprintf("%.2f", v)
}
