// Package api - request and response types
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"cardpricer/core/pricing"
	"cardpricer/core/types"
	"cardpricer/db"
)

// PreviewRequest asks for an itemized price computation for a single
// source price. SourcePrice must parse as a positive finite decimal.
type PreviewRequest struct {
	// SourcePrice is the source-currency price, as a decimal string
	SourcePrice string `json:"source_price"`

	// Config optionally overrides the stored configuration
	Config *pricing.Config `json:"config,omitempty"`
}

// PreviewResponse is the itemized computation trace.
type PreviewResponse struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`

	// Breakdown itemizes every step of the computation
	Breakdown pricing.Breakdown `json:"breakdown"`

	// FormattedLocal is the final price rendered for display
	FormattedLocal string `json:"formatted_local"`

	// FormattedSource is the input price rendered for display
	FormattedSource string `json:"formatted_source"`

	// Degraded is set when the fallback config was used because the
	// configuration store was unavailable
	Degraded bool `json:"degraded,omitempty"`
}

// DisplayPriceRequest asks for the buyer-facing price of one card.
type DisplayPriceRequest struct {
	// Card carries the card's optional source prices and cached local price
	Card types.CardPriceSet `json:"card"`

	// Selection optionally restricts the finish (normal, foil, etched)
	Selection []types.Finish `json:"selection,omitempty"`

	// PreferCache defaults to true when omitted
	PreferCache *bool `json:"prefer_cache,omitempty"`

	// Config optionally overrides the stored configuration
	Config *pricing.Config `json:"config,omitempty"`
}

// DisplayPriceResponse is the nullable display price.
type DisplayPriceResponse struct {
	RequestID string `json:"request_id"`

	// DisplayPrice is null when the card has no usable source price
	DisplayPrice *decimal.Decimal `json:"display_price"`

	// Currency is the currency of DisplayPrice
	Currency types.Currency `json:"currency"`

	// Formatted is the display string, "Not available" when null
	Formatted string `json:"formatted"`

	Degraded bool `json:"degraded,omitempty"`
}

// ConfigResponse wraps the persisted configuration row.
type ConfigResponse struct {
	// Config is the stored row, or the documented fallback when degraded
	Config db.ConfigRow `json:"config"`

	// Effective is the engine config resolved for "now"
	Effective pricing.Config `json:"effective"`

	// Degraded is set when the fallback substituted for the store
	Degraded bool `json:"degraded,omitempty"`
}

// CardPriceResponse is the stored-card variant of DisplayPriceResponse.
type CardPriceResponse struct {
	RequestID    string           `json:"request_id"`
	CardID       string           `json:"card_id"`
	DisplayPrice *decimal.Decimal `json:"display_price"`
	Currency     types.Currency   `json:"currency"`
	Formatted    string           `json:"formatted"`
	Degraded     bool             `json:"degraded,omitempty"`
}
