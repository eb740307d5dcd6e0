// Package cmd - preview command
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"cardpricer/core/format"
	"cardpricer/core/pricing"
	"cardpricer/internal/logging"
)

var betaOverride string

// previewCmd represents the preview command
var previewCmd = &cobra.Command{
	Use:   "preview <source-price>",
	Short: "Show the itemized local price for a source price",
	Long: `Compute the localized sale price for a single source-currency
price and print every intermediate step: FX base, selected alpha, additive,
pre-floor amount, floored amount, and the step-aligned final price.

Examples:
  cardpricer preview 3
  cardpricer preview 0.1
  cardpricer preview 5 --beta 100`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringVar(&betaOverride, "beta", "", "override the flat additive (local currency)")
}

func runPreview(cmd *cobra.Command, args []string) error {
	src, err := decimal.NewFromString(args[0])
	if err != nil {
		return fmt.Errorf("source price is not a number: %q", args[0])
	}
	if !src.IsPositive() {
		return fmt.Errorf("source price must be positive, got %s", src)
	}

	cfg, degraded := loadPricingConfig(context.Background(), time.Now())
	if degraded {
		logging.Warn("pricing config store unavailable, using fallback config")
	}
	if betaOverride != "" {
		beta, err := decimal.NewFromString(betaOverride)
		if err != nil {
			return fmt.Errorf("beta is not a number: %q", betaOverride)
		}
		cfg.BetaAdditive = beta
	}

	b := pricing.Explain(src, cfg)

	fmt.Printf("Source price:   %s\n", format.FormatSource(&b.SourcePrice))
	fmt.Printf("FX base:        %s (rate %s)\n", b.BaseLocal.String(), cfg.FXRate.String())
	fmt.Printf("Alpha:          %s\n", b.Alpha.String())
	fmt.Printf("Additive:       %s\n", b.Additive.String())
	fmt.Printf("Pre-floor:      %s\n", b.PreFloor.String())
	fmt.Printf("Floored:        %s (floor %s)\n", b.Floored.String(), cfg.PriceFloorLocal.String())
	fmt.Printf("Step:           %s\n", b.Step.String())
	fmt.Printf("Final:          %s\n", format.FormatLocal(&b.Final))
	return nil
}
