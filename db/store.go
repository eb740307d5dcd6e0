// Package db persists the pricing configuration row and per-card price
// sets. The pricing engine itself never touches storage; this package is
// the surrounding system's side of the contract.
package db

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"cardpricer/core/pricing"
	"cardpricer/core/types"
)

// ConfigRow is the persisted shape of the pricing configuration: the
// classic two-threshold, three-alpha scalars plus an optional validity
// window for the beta additive.
type ConfigRow struct {
	UseLocalCurrency bool            `json:"use_local_currency"`
	FXRate           decimal.Decimal `json:"fx_rate"`
	TierLow          decimal.Decimal `json:"tier_low"`
	TierMid          decimal.Decimal `json:"tier_mid"`
	AlphaLow         decimal.Decimal `json:"alpha_low"`
	AlphaMid         decimal.Decimal `json:"alpha_mid"`
	AlphaHigh        decimal.Decimal `json:"alpha_high"`

	// BetaAdditive applies only inside [BetaStartsAt, BetaEndsAt); a nil
	// bound is open-ended. Outside the window the resolved beta is zero.
	BetaAdditive decimal.Decimal `json:"beta_additive"`
	BetaStartsAt *time.Time      `json:"beta_starts_at,omitempty"`
	BetaEndsAt   *time.Time      `json:"beta_ends_at,omitempty"`

	PriceFloor decimal.Decimal `json:"price_floor"`
	RoundStep  decimal.Decimal `json:"round_step"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Resolve builds the engine config effective at a point in time,
// collapsing the beta window to a scalar.
func (r ConfigRow) Resolve(at time.Time) pricing.Config {
	beta := decimal.Zero
	if r.betaActive(at) {
		beta = r.BetaAdditive
	}
	return pricing.Config{
		UseLocalCurrency: r.UseLocalCurrency,
		FXRate:           r.FXRate,
		Tiers:            pricing.ThreeTier(r.TierLow, r.TierMid, r.AlphaLow, r.AlphaMid, r.AlphaHigh),
		BetaAdditive:     beta,
		PriceFloorLocal:  r.PriceFloor,
		RoundToStepLocal: r.RoundStep,
	}
}

func (r ConfigRow) betaActive(at time.Time) bool {
	if r.BetaAdditive.IsZero() {
		return false
	}
	if r.BetaStartsAt != nil && at.Before(*r.BetaStartsAt) {
		return false
	}
	if r.BetaEndsAt != nil && !at.Before(*r.BetaEndsAt) {
		return false
	}
	return true
}

// CardRow is one card's persisted price observation.
type CardRow struct {
	// ID is the card identifier assigned by the catalog
	ID string `json:"id"`

	// Prices is the card's current price set
	Prices types.CardPriceSet `json:"prices"`

	// UpdatedAt is when the ingestion job last touched this card
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the persistence boundary used by the API, the CLI, and the
// repricing job.
type Store interface {
	// LoadConfig returns the engine config effective at the given time.
	// A missing config row yields a NOT_FOUND error; callers substitute
	// pricing.Fallback() to stay usable in degraded mode.
	LoadConfig(ctx context.Context, at time.Time) (pricing.Config, error)

	// GetConfigRow returns the raw persisted configuration
	GetConfigRow(ctx context.Context) (*ConfigRow, error)

	// SaveConfig validates and persists the configuration row
	SaveConfig(ctx context.Context, row ConfigRow) error

	// GetCard returns one card's price row
	GetCard(ctx context.Context, id string) (*CardRow, error)

	// UpsertCard writes a card's source prices (ingestion path)
	UpsertCard(ctx context.Context, row CardRow) error

	// ListCards pages through cards by id, for chunked repricing
	ListCards(ctx context.Context, afterID string, limit int) ([]CardRow, error)

	// SetCachedLocal writes the memoized local price; nil clears it
	SetCachedLocal(ctx context.Context, id string, v *decimal.Decimal) error

	// Close releases the underlying database
	Close() error
}
