// Package cmd provides the CLI commands for cardpricer.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cardpricer/internal/config"
	"cardpricer/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cardpricer",
	Short: "Localized pricing engine for the card marketplace",
	Long: `cardpricer converts upstream USD card-market prices into the
localized CLP sale prices shown to buyers: FX conversion, tiered markup,
flat additive, price floor, and step rounding.

Examples:
  cardpricer preview 3
  cardpricer preview 12.50 --beta 100
  cardpricer reprice
  cardpricer config show`,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(repriceCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	path := cfgFile
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	config.Set(cfg)

	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("cardpricer version 1.0.0")
	},
}
