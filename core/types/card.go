// Package types - Shared card and currency types
package types

import "github.com/shopspring/decimal"

// Currency represents a currency code
type Currency string

const (
	// CurrencyUSD is the source currency of upstream market prices
	CurrencyUSD Currency = "USD"

	// CurrencyCLP is the local currency shown to buyers
	CurrencyCLP Currency = "CLP"
)

// String returns the string representation
func (c Currency) String() string {
	return string(c)
}

// Finish identifies a card printing variant
type Finish string

const (
	FinishNormal Finish = "normal"
	FinishFoil   Finish = "foil"
	FinishEtched Finish = "etched"
)

// Valid reports whether f is a known finish
func (f Finish) Valid() bool {
	switch f {
	case FinishNormal, FinishFoil, FinishEtched:
		return true
	}
	return false
}

// CardPriceSet holds one observation of a card's source-currency prices.
// Fields are nil when the upstream provider published no price for that
// finish. CachedLocal is a memoized engine output written by the repricing
// job; it may be stale relative to the current config and the engine never
// validates it beyond presence.
type CardPriceSet struct {
	// Normal is the non-foil source price
	Normal *decimal.Decimal `json:"normal,omitempty"`

	// Foil is the foil source price
	Foil *decimal.Decimal `json:"foil,omitempty"`

	// Etched is the etched-foil source price
	Etched *decimal.Decimal `json:"etched,omitempty"`

	// CachedLocal is the previously computed local price, if any
	CachedLocal *decimal.Decimal `json:"cached_local,omitempty"`
}

// Price returns the source price for a finish, or nil
func (c CardPriceSet) Price(f Finish) *decimal.Decimal {
	switch f {
	case FinishNormal:
		return c.Normal
	case FinishFoil:
		return c.Foil
	case FinishEtched:
		return c.Etched
	}
	return nil
}

// HasAnyPrice reports whether at least one finish has a source price
func (c CardPriceSet) HasAnyPrice() bool {
	return c.Normal != nil || c.Foil != nil || c.Etched != nil
}
