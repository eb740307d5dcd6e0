// Package cmd - config commands
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cardpricer/core/pricing"
	"cardpricer/db"
	"cardpricer/internal/config"
)

// configCmd manages the persisted pricing configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the pricing configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active pricing configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Seed the store with the documented fallback configuration",
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, degraded := loadPricingConfig(context.Background(), time.Now())
	if degraded {
		fmt.Fprintln(os.Stderr, "warning: configuration store unavailable, showing fallback")
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	store, err := db.NewSQLiteStore(config.Get().Database.SQLitePath)
	if err != nil {
		return err
	}
	defer store.Close()

	fb := pricing.Fallback()
	row := db.ConfigRow{
		UseLocalCurrency: fb.UseLocalCurrency,
		FXRate:           fb.FXRate,
		TierLow:          fb.Tiers[0].UpTo,
		TierMid:          fb.Tiers[1].UpTo,
		AlphaLow:         fb.Tiers[0].Alpha,
		AlphaMid:         fb.Tiers[1].Alpha,
		AlphaHigh:        fb.Tiers[2].Alpha,
		BetaAdditive:     fb.BetaAdditive,
		PriceFloor:       fb.PriceFloorLocal,
		RoundStep:        fb.RoundToStepLocal,
	}
	if err := store.SaveConfig(context.Background(), row); err != nil {
		return err
	}
	fmt.Println("Pricing configuration initialized from fallback defaults.")
	return nil
}

// loadPricingConfig resolves the engine config from the store, falling
// back to the documented defaults when the store is unavailable. The
// second return reports degraded mode.
func loadPricingConfig(ctx context.Context, at time.Time) (pricing.Config, bool) {
	store, err := db.NewSQLiteStore(config.Get().Database.SQLitePath)
	if err != nil {
		return pricing.Fallback(), true
	}
	defer store.Close()

	cfg, err := store.LoadConfig(ctx, at)
	if err != nil {
		return pricing.Fallback(), true
	}
	return cfg, false
}
