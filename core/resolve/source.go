// Package resolve selects which of a card's prices to show. It never
// computes prices itself; computation is delegated to core/pricing.
package resolve

import (
	"github.com/shopspring/decimal"

	"cardpricer/core/types"
)

// preference is the default finish order when no usable selection is
// given: etched wins over foil, foil over normal.
var preference = []types.Finish{types.FinishEtched, types.FinishFoil, types.FinishNormal}

// SourcePrice picks the source-currency price to use for a card.
//
// A selection naming exactly one finish whose price is present wins.
// Anything else (no selection, multiple finishes, unknown finish, or a
// selected finish with no price) falls back to the default preference
// order. Returns nil when the card has no price at all.
func SourcePrice(card types.CardPriceSet, selection []types.Finish) *decimal.Decimal {
	if len(selection) == 1 {
		if p := card.Price(selection[0]); p != nil {
			return p
		}
	}
	for _, f := range preference {
		if p := card.Price(f); p != nil {
			return p
		}
	}
	return nil
}
