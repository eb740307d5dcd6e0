package reprice

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"cardpricer/core/types"
	"cardpricer/db"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func openStore(t *testing.T) *db.SQLiteStore {
	t.Helper()
	store, err := db.NewSQLiteStore(filepath.Join(t.TempDir(), "pricing.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedConfig(t *testing.T, store *db.SQLiteStore) {
	t.Helper()
	row := db.ConfigRow{
		UseLocalCurrency: true,
		FXRate:           decimal.NewFromInt(950),
		TierLow:          decimal.NewFromInt(5),
		TierMid:          decimal.NewFromInt(20),
		AlphaLow:         decimal.RequireFromString("0.9"),
		AlphaMid:         decimal.RequireFromString("0.7"),
		AlphaHigh:        decimal.RequireFromString("0.5"),
		BetaAdditive:     decimal.Zero,
		PriceFloor:       decimal.NewFromInt(500),
		RoundStep:        decimal.NewFromInt(500),
	}
	if err := store.SaveConfig(context.Background(), row); err != nil {
		t.Fatalf("seed config: %v", err)
	}
}

func TestRunRewritesCaches(t *testing.T) {
	store := openStore(t)
	seedConfig(t, store)
	ctx := context.Background()

	cards := []db.CardRow{
		// Stale cache, must be rewritten to 5500
		{ID: "stale", Prices: types.CardPriceSet{Normal: decPtr("3"), CachedLocal: decPtr("4200")}},
		// No cache yet, must be filled
		{ID: "uncached", Prices: types.CardPriceSet{Etched: decPtr("3")}},
		// Correct cache, must be left alone
		{ID: "fresh", Prices: types.CardPriceSet{Normal: decPtr("3"), CachedLocal: decPtr("5500")}},
		// No source price, stray cache must be cleared
		{ID: "orphan", Prices: types.CardPriceSet{CachedLocal: decPtr("9000")}},
	}
	for _, c := range cards {
		if err := store.UpsertCard(ctx, c); err != nil {
			t.Fatalf("upsert %s: %v", c.ID, err)
		}
	}

	// Chunk size of 1 forces one chunk per card.
	stats, err := NewJob(store, 1).Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if stats.Processed != 4 {
		t.Errorf("processed = %d, want 4", stats.Processed)
	}
	if stats.Updated != 2 {
		t.Errorf("updated = %d, want 2", stats.Updated)
	}
	if stats.Cleared != 1 {
		t.Errorf("cleared = %d, want 1", stats.Cleared)
	}
	if stats.Unchanged != 1 {
		t.Errorf("unchanged = %d, want 1", stats.Unchanged)
	}

	for _, tt := range []struct {
		id   string
		want *decimal.Decimal
	}{
		{"stale", decPtr("5500")},
		{"uncached", decPtr("5500")},
		{"fresh", decPtr("5500")},
		{"orphan", nil},
	} {
		got, err := store.GetCard(ctx, tt.id)
		if err != nil {
			t.Fatalf("get %s: %v", tt.id, err)
		}
		switch {
		case tt.want == nil && got.Prices.CachedLocal != nil:
			t.Errorf("%s: cached = %s, want nil", tt.id, got.Prices.CachedLocal)
		case tt.want != nil && (got.Prices.CachedLocal == nil || !got.Prices.CachedLocal.Equal(*tt.want)):
			t.Errorf("%s: cached = %v, want %s", tt.id, got.Prices.CachedLocal, tt.want)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	store := openStore(t)
	seedConfig(t, store)
	ctx := context.Background()

	if err := store.UpsertCard(ctx, db.CardRow{ID: "c1", Prices: types.CardPriceSet{Normal: decPtr("3")}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if _, err := NewJob(store, 100).Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	stats, err := NewJob(store, 100).Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.Updated != 0 || stats.Cleared != 0 {
		t.Errorf("second run changed rows: %+v", stats)
	}
	if stats.Unchanged != 1 {
		t.Errorf("unchanged = %d, want 1", stats.Unchanged)
	}
}

func TestRunWithoutConfigUsesFallback(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.UpsertCard(ctx, db.CardRow{ID: "c1", Prices: types.CardPriceSet{Normal: decPtr("3")}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	stats, err := NewJob(store, 100).Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Updated != 1 {
		t.Errorf("updated = %d, want 1", stats.Updated)
	}

	got, err := store.GetCard(ctx, "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Prices.CachedLocal == nil || !got.Prices.CachedLocal.Equal(decimal.NewFromInt(5500)) {
		t.Errorf("cached = %v, want fallback-derived 5500", got.Prices.CachedLocal)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	store := openStore(t)
	seedConfig(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewJob(store, 10).Run(ctx); err == nil {
		t.Fatal("expected context error from cancelled run")
	}
}
