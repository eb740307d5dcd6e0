package pricing

import "github.com/shopspring/decimal"

// PickAlpha selects the markup fraction for a source price. The first
// tier whose bound satisfies strict sourcePrice < UpTo wins, so a price
// equal to a threshold falls into the next tier. Negative or zero input
// lands in the first tier. Total function: always returns a value.
func PickAlpha(sourcePrice decimal.Decimal, cfg Config) decimal.Decimal {
	for _, t := range cfg.Tiers {
		if t.Unbounded || sourcePrice.LessThan(t.UpTo) {
			return t.Alpha
		}
	}
	// Unreachable for a validated config; an empty schedule means no markup.
	return decimal.Zero
}
