package catalog

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var rupiahPrinter = message.NewPrinter(language.Indonesian)

// FormatRupiah renders an amount the way the storefront shows prices.
func FormatRupiah(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	if amount == math.Trunc(amount) {
		return rupiahPrinter.Sprintf("Rp %d", int64(amount))
	}
	return rupiahPrinter.Sprintf("Rp %.2f", amount)
}
