// Package format renders prices for display. Formatting never fails:
// missing or non-numeric values render as NotAvailable.
package format

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// NotAvailable is shown wherever no price can be rendered.
const NotAvailable = "Not available"

// Profile describes how one currency is rendered: symbol prefix, the
// locale that drives digit grouping, and whether grouping is applied at
// all. Injecting the profile keeps the formatter reusable for other
// currency pairs.
type Profile struct {
	// Symbol is the currency prefix
	Symbol string

	// Locale drives the grouping separator
	Locale language.Tag

	// Grouping enables locale-aware thousands grouping
	Grouping bool
}

var (
	// CLP renders local prices: peso symbol, es-CL grouping, no
	// decimals (CLP has no minor unit in practice).
	CLP = Profile{Symbol: "$", Locale: language.MustParse("es-CL"), Grouping: true}

	// USD renders source prices: integer part only, rounded up, no
	// separators.
	USD = Profile{Symbol: "US$", Locale: language.English, Grouping: false}
)

// Format renders a price under this profile. Values are rounded up to
// whole units. nil renders as NotAvailable.
func (p Profile) Format(v *decimal.Decimal) string {
	if v == nil {
		return NotAvailable
	}
	n := v.Ceil()
	if !p.Grouping {
		return p.Symbol + n.String()
	}
	printer := message.NewPrinter(p.Locale)
	return p.Symbol + printer.Sprintf("%v", number.Decimal(n.IntPart(), number.MaxFractionDigits(0)))
}

// FormatLocal renders a local-currency price with the CLP profile.
func FormatLocal(v *decimal.Decimal) string {
	return CLP.Format(v)
}

// FormatSource renders a source-currency price with the USD profile.
func FormatSource(v *decimal.Decimal) string {
	return USD.Format(v)
}

// FromFloat converts a float into a formattable value. NaN and infinities
// map to nil so they render as NotAvailable instead of garbage.
func FromFloat(f float64) *decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	d := decimal.NewFromFloat(f)
	return &d
}
