package pricing

import "github.com/shopspring/decimal"

var one = decimal.NewFromInt(1)

// Breakdown is the itemized trace of one price computation, exposed for
// the preview boundary and admin tooling.
type Breakdown struct {
	// SourcePrice is the input source-currency price
	SourcePrice decimal.Decimal `json:"source_price"`

	// BaseLocal is SourcePrice * FXRate
	BaseLocal decimal.Decimal `json:"base_local"`

	// Alpha is the markup fraction selected by tier
	Alpha decimal.Decimal `json:"alpha"`

	// Additive is the flat beta amount applied after markup
	Additive decimal.Decimal `json:"additive"`

	// PreFloor is BaseLocal * (1 + Alpha) + Additive
	PreFloor decimal.Decimal `json:"pre_floor"`

	// Floored is max(floor, ceil(PreFloor))
	Floored decimal.Decimal `json:"floored"`

	// Step is the rounding step that was applied
	Step decimal.Decimal `json:"step"`

	// Final is the step-aligned result
	Final decimal.Decimal `json:"final"`
}

// ComputeLocalPrice converts a source-currency price into the final
// local sale price: FX conversion, tiered markup, additive, ceiling,
// floor, then step rounding. Always rounds up, never down. Monotonic in
// sourcePrice for a fixed config with nonnegative FX rate and alphas.
//
// The function is total: any finite input yields a deterministic result.
// Negative source prices are not rejected here; boundaries that accept
// user input must validate before calling.
func ComputeLocalPrice(sourcePrice decimal.Decimal, cfg Config) decimal.Decimal {
	return Explain(sourcePrice, cfg).Final
}

// Explain runs the same computation as ComputeLocalPrice and returns
// every intermediate value.
func Explain(sourcePrice decimal.Decimal, cfg Config) Breakdown {
	b := Breakdown{
		SourcePrice: sourcePrice,
		Additive:    cfg.BetaAdditive,
		Step:        cfg.RoundToStepLocal,
	}
	b.BaseLocal = sourcePrice.Mul(cfg.FXRate)
	b.Alpha = PickAlpha(sourcePrice, cfg)
	b.PreFloor = b.BaseLocal.Mul(one.Add(b.Alpha)).Add(cfg.BetaAdditive)
	// Ceiling is applied before the floor comparison; the floor itself is
	// assumed step-aligned and is not re-validated.
	b.Floored = decimal.Max(cfg.PriceFloorLocal, b.PreFloor.Ceil())
	b.Final = CeilToStep(b.Floored, cfg.RoundToStepLocal)
	return b
}

// CeilToStep rounds x up to the nearest multiple of step. A step of zero
// or less returns x unchanged.
func CeilToStep(x, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return x
	}
	return x.Div(step).Ceil().Mul(step)
}
