package resolve

import (
	"github.com/shopspring/decimal"

	"cardpricer/core/pricing"
	"cardpricer/core/types"
)

// Query controls one display-price resolution.
type Query struct {
	// Selection optionally restricts the finish. A single-element
	// selection is treated as explicit; empty or multi-element
	// selections are the aggregate case.
	Selection []types.Finish

	// PreferCache returns the card's cached local price verbatim in the
	// aggregate case instead of recomputing. The cache is trusted
	// without checking it against the current config; stale values
	// persist until the repricing job rewrites them. Freshness callers
	// (the repricing job itself) set this to false.
	PreferCache bool
}

// DefaultQuery is the aggregate, cache-preferring query used by listing
// and browse surfaces.
func DefaultQuery() Query {
	return Query{PreferCache: true}
}

// ForFinish is an explicit single-finish query; it always recomputes.
func ForFinish(f types.Finish) Query {
	return Query{Selection: []types.Finish{f}, PreferCache: true}
}

// DisplayPrice resolves the price shown to the buyer for one card.
//
// With UseLocalCurrency off the raw source price is returned unmodified.
// Otherwise the resolved source price is converted through the pricing
// engine, except in the cache-trusting aggregate case. A card with no
// source price yields nil, never an error.
func DisplayPrice(card types.CardPriceSet, cfg pricing.Config, q Query) *decimal.Decimal {
	src := SourcePrice(card, q.Selection)
	if !cfg.UseLocalCurrency {
		return src
	}
	if src == nil {
		return nil
	}
	if q.PreferCache && len(q.Selection) != 1 && card.CachedLocal != nil {
		return card.CachedLocal
	}
	v := pricing.ComputeLocalPrice(*src, cfg)
	return &v
}
