// Package cmd - reprice command
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cardpricer/db"
	"cardpricer/db/reprice"
	"cardpricer/internal/config"
)

var chunkSize int

// repriceCmd represents the reprice command
var repriceCmd = &cobra.Command{
	Use:   "reprice",
	Short: "Recompute cached local prices for every card",
	Long: `Run one bulk repricing pass: walk the card table in bounded
chunks and rewrite each card's cached local price from the current
configuration. Safe to re-run; an interrupted run resumes naturally on
the next invocation.`,
	RunE: runReprice,
}

func init() {
	repriceCmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "cards per chunk (default from config)")
}

func runReprice(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	store, err := db.NewSQLiteStore(cfg.Database.SQLitePath)
	if err != nil {
		return err
	}
	defer store.Close()

	size := cfg.Repricing.ChunkSize
	if chunkSize > 0 {
		size = chunkSize
	}

	start := time.Now()
	stats, err := reprice.NewJob(store, size).Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Repriced %d cards in %s (%d updated, %d cleared, %d unchanged)\n",
		stats.Processed, time.Since(start).Round(time.Millisecond),
		stats.Updated, stats.Cleared, stats.Unchanged)
	return nil
}
