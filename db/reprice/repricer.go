// Package reprice recomputes cached local prices in bulk. The job is a
// pure function of current config and current source prices, so re-runs
// are idempotent and an interrupted run can resume from any card id.
package reprice

import (
	"context"
	"time"

	"go.uber.org/zap"

	"cardpricer/core/pricing"
	"cardpricer/core/resolve"
	"cardpricer/db"
	"cardpricer/internal/errors"
	"cardpricer/internal/logging"
)

// Stats summarizes one repricing run.
type Stats struct {
	// Processed is the number of cards examined
	Processed int `json:"processed"`

	// Updated is the number of cached prices written
	Updated int `json:"updated"`

	// Cleared is the number of caches removed for cards with no source price
	Cleared int `json:"cleared"`

	// Unchanged is the number of caches already correct
	Unchanged int `json:"unchanged"`
}

// Job recomputes the cached local price for every card.
type Job struct {
	Store db.Store

	// ChunkSize bounds how many cards one iteration touches
	ChunkSize int
}

// NewJob creates a repricing job with a sane chunk size.
func NewJob(store db.Store, chunkSize int) *Job {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	return &Job{Store: store, ChunkSize: chunkSize}
}

// Run walks the card table in bounded chunks and rewrites each card's
// cached local price from the current config. Cards with no source price
// get their cache cleared. Cancellation is honored between chunks.
func (j *Job) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	cfg, err := j.Store.LoadConfig(ctx, time.Now())
	if err != nil {
		if !errors.IsType(err, errors.TypeNotFound) {
			return stats, err
		}
		logging.Warn("no pricing config stored, repricing with fallback")
		cfg = pricing.Fallback()
	}

	afterID := ""
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		cards, err := j.Store.ListCards(ctx, afterID, j.ChunkSize)
		if err != nil {
			return stats, err
		}
		if len(cards) == 0 {
			break
		}

		for _, card := range cards {
			if err := j.repriceOne(ctx, cfg, card, &stats); err != nil {
				return stats, err
			}
			stats.Processed++
			afterID = card.ID
		}
	}

	logging.Info("repricing run complete",
		zap.Int("processed", stats.Processed),
		zap.Int("updated", stats.Updated),
		zap.Int("cleared", stats.Cleared),
	)
	return stats, nil
}

func (j *Job) repriceOne(ctx context.Context, cfg pricing.Config, card db.CardRow, stats *Stats) error {
	// Aggregate query, cache ignored: this job is the cache writer.
	fresh := resolve.DisplayPrice(card.Prices, cfg, resolve.Query{PreferCache: false})

	cached := card.Prices.CachedLocal
	switch {
	case fresh == nil && cached == nil:
		stats.Unchanged++
		return nil
	case fresh == nil:
		if err := j.Store.SetCachedLocal(ctx, card.ID, nil); err != nil {
			return err
		}
		stats.Cleared++
		return nil
	case cached != nil && cached.Equal(*fresh):
		stats.Unchanged++
		return nil
	default:
		if err := j.Store.SetCachedLocal(ctx, card.ID, fresh); err != nil {
			return err
		}
		stats.Updated++
		return nil
	}
}
