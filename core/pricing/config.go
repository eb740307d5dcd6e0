// Package pricing implements the localized price computation engine.
// The engine is pure: identical inputs always produce identical outputs,
// no I/O, no shared state. Config validation happens at the write
// boundary, never on the compute path.
package pricing

import (
	"github.com/shopspring/decimal"

	"cardpricer/internal/errors"
)

// Tier is one markup tier. A source price strictly below UpTo takes
// Alpha; the last tier has Unbounded set and catches everything else.
type Tier struct {
	// UpTo is the exclusive upper bound on the source price
	UpTo decimal.Decimal `json:"up_to"`

	// Alpha is the markup fraction applied as (1 + Alpha)
	Alpha decimal.Decimal `json:"alpha"`

	// Unbounded marks the final catch-all tier
	Unbounded bool `json:"unbounded,omitempty"`
}

// Config is the immutable-per-request pricing configuration. Callers
// must treat a Config as a value snapshot for the duration of one
// computation.
type Config struct {
	// UseLocalCurrency bypasses the engine entirely when false; the
	// raw source price is shown as-is.
	UseLocalCurrency bool `json:"use_local_currency"`

	// FXRate converts source currency to local currency
	FXRate decimal.Decimal `json:"fx_rate"`

	// Tiers is the ordered markup schedule
	Tiers []Tier `json:"tiers"`

	// BetaAdditive is a flat local-currency amount added after markup,
	// already resolved to a scalar by the configuration store
	BetaAdditive decimal.Decimal `json:"beta_additive"`

	// PriceFloorLocal is the minimum final price per unit
	PriceFloorLocal decimal.Decimal `json:"price_floor_local"`

	// RoundToStepLocal rounds the final price up to a multiple of this
	// step; zero disables stepping
	RoundToStepLocal decimal.Decimal `json:"round_to_step_local"`
}

// ThreeTier builds the classic two-threshold, three-alpha schedule.
func ThreeTier(lowThreshold, midThreshold, alphaLow, alphaMid, alphaHigh decimal.Decimal) []Tier {
	return []Tier{
		{UpTo: lowThreshold, Alpha: alphaLow},
		{UpTo: midThreshold, Alpha: alphaMid},
		{Alpha: alphaHigh, Unbounded: true},
	}
}

// Fallback returns the hardcoded degraded-mode config used whenever the
// configuration store is unavailable. Single source of truth; call sites
// must not redeclare these literals.
func Fallback() Config {
	return Config{
		UseLocalCurrency: true,
		FXRate:           decimal.NewFromInt(950),
		Tiers: ThreeTier(
			decimal.NewFromInt(5),
			decimal.NewFromInt(20),
			decimal.RequireFromString("0.9"),
			decimal.RequireFromString("0.7"),
			decimal.RequireFromString("0.5"),
		),
		BetaAdditive:     decimal.Zero,
		PriceFloorLocal:  decimal.NewFromInt(500),
		RoundToStepLocal: decimal.NewFromInt(500),
	}
}

// Validate checks the config invariants. Run when a config is written or
// updated, not on every computation.
func (c Config) Validate() error {
	if !c.FXRate.IsPositive() {
		return errors.Newf(errors.TypeConfig, "fx_rate must be positive, got %s", c.FXRate)
	}
	if len(c.Tiers) == 0 {
		return errors.New(errors.TypeConfig, "tier schedule is empty")
	}
	var prev *decimal.Decimal
	for i, t := range c.Tiers {
		if t.Alpha.IsNegative() {
			return errors.Newf(errors.TypeConfig, "tier %d: alpha must be nonnegative, got %s", i, t.Alpha)
		}
		if t.Unbounded {
			if i != len(c.Tiers)-1 {
				return errors.Newf(errors.TypeConfig, "tier %d: unbounded tier must be last", i)
			}
			continue
		}
		if i == len(c.Tiers)-1 {
			return errors.New(errors.TypeConfig, "last tier must be unbounded")
		}
		if !t.UpTo.IsPositive() {
			return errors.Newf(errors.TypeConfig, "tier %d: bound must be positive, got %s", i, t.UpTo)
		}
		if prev != nil && !prev.LessThan(t.UpTo) {
			return errors.Newf(errors.TypeConfig, "tier %d: bound %s not above previous bound %s", i, t.UpTo, prev)
		}
		bound := t.UpTo
		prev = &bound
	}
	if c.PriceFloorLocal.IsNegative() {
		return errors.Newf(errors.TypeConfig, "price_floor_local must be nonnegative, got %s", c.PriceFloorLocal)
	}
	if c.RoundToStepLocal.IsNegative() {
		return errors.Newf(errors.TypeConfig, "round_to_step_local must be nonnegative, got %s", c.RoundToStepLocal)
	}
	return nil
}
