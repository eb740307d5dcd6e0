package db

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"cardpricer/core/pricing"
	"cardpricer/internal/errors"
	"cardpricer/internal/logging"
)

// SQLiteStore persists pricing state to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Storage("open sqlite", err)
	}

	// WAL mode: request handlers read while the repricing job writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Storage("set WAL mode", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Storage("migrate", err)
	}

	logging.Info("sqlite store opened", zap.String("path", dbPath))
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS pricing_config (
			id                 INTEGER PRIMARY KEY CHECK (id = 1),
			use_local_currency INTEGER NOT NULL,
			fx_rate            TEXT NOT NULL,
			tier_low           TEXT NOT NULL,
			tier_mid           TEXT NOT NULL,
			alpha_low          TEXT NOT NULL,
			alpha_mid          TEXT NOT NULL,
			alpha_high         TEXT NOT NULL,
			beta_additive      TEXT NOT NULL,
			beta_starts_at     INTEGER,
			beta_ends_at       INTEGER,
			price_floor        TEXT NOT NULL,
			round_step         TEXT NOT NULL,
			updated_at         INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS card_prices (
			card_id      TEXT PRIMARY KEY,
			normal       TEXT,
			foil         TEXT,
			etched       TEXT,
			cached_local TEXT,
			updated_at   INTEGER NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// LoadConfig implements Store
func (s *SQLiteStore) LoadConfig(ctx context.Context, at time.Time) (pricing.Config, error) {
	row, err := s.GetConfigRow(ctx)
	if err != nil {
		return pricing.Config{}, err
	}
	return row.Resolve(at), nil
}

// GetConfigRow implements Store
func (s *SQLiteStore) GetConfigRow(ctx context.Context) (*ConfigRow, error) {
	var (
		row        ConfigRow
		useLocal   int
		fx, tl, tm string
		al, am, ah string
		beta       string
		bStart     sql.NullInt64
		bEnd       sql.NullInt64
		floor, st  string
		updated    int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT use_local_currency, fx_rate, tier_low, tier_mid,
		alpha_low, alpha_mid, alpha_high, beta_additive, beta_starts_at, beta_ends_at,
		price_floor, round_step, updated_at
		FROM pricing_config WHERE id = 1`).Scan(
		&useLocal, &fx, &tl, &tm, &al, &am, &ah, &beta, &bStart, &bEnd, &floor, &st, &updated,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("pricing config", "row 1")
	}
	if err != nil {
		return nil, errors.Storage("query pricing config", err)
	}

	row.UseLocalCurrency = useLocal != 0
	fields := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&row.FXRate, fx}, {&row.TierLow, tl}, {&row.TierMid, tm},
		{&row.AlphaLow, al}, {&row.AlphaMid, am}, {&row.AlphaHigh, ah},
		{&row.BetaAdditive, beta}, {&row.PriceFloor, floor}, {&row.RoundStep, st},
	}
	for _, f := range fields {
		d, err := decimal.NewFromString(f.src)
		if err != nil {
			return nil, errors.Storage("corrupt decimal in pricing config", err)
		}
		*f.dst = d
	}
	if bStart.Valid {
		t := time.Unix(bStart.Int64, 0).UTC()
		row.BetaStartsAt = &t
	}
	if bEnd.Valid {
		t := time.Unix(bEnd.Int64, 0).UTC()
		row.BetaEndsAt = &t
	}
	row.UpdatedAt = time.Unix(updated, 0).UTC()
	return &row, nil
}

// SaveConfig implements Store. The resolved config is validated before
// the write so malformed tiers never reach the hot path.
func (s *SQLiteStore) SaveConfig(ctx context.Context, row ConfigRow) error {
	if err := row.Resolve(time.Now()).Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO pricing_config
		(id, use_local_currency, fx_rate, tier_low, tier_mid, alpha_low, alpha_mid, alpha_high,
		 beta_additive, beta_starts_at, beta_ends_at, price_floor, round_step, updated_at)
		VALUES (1,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			use_local_currency = excluded.use_local_currency,
			fx_rate = excluded.fx_rate,
			tier_low = excluded.tier_low,
			tier_mid = excluded.tier_mid,
			alpha_low = excluded.alpha_low,
			alpha_mid = excluded.alpha_mid,
			alpha_high = excluded.alpha_high,
			beta_additive = excluded.beta_additive,
			beta_starts_at = excluded.beta_starts_at,
			beta_ends_at = excluded.beta_ends_at,
			price_floor = excluded.price_floor,
			round_step = excluded.round_step,
			updated_at = excluded.updated_at`,
		boolToInt(row.UseLocalCurrency), row.FXRate.String(), row.TierLow.String(), row.TierMid.String(),
		row.AlphaLow.String(), row.AlphaMid.String(), row.AlphaHigh.String(),
		row.BetaAdditive.String(), unixOrNil(row.BetaStartsAt), unixOrNil(row.BetaEndsAt),
		row.PriceFloor.String(), row.RoundStep.String(), time.Now().Unix(),
	)
	if err != nil {
		return errors.Storage("save pricing config", err)
	}
	return nil
}

// GetCard implements Store
func (s *SQLiteStore) GetCard(ctx context.Context, id string) (*CardRow, error) {
	row := s.db.QueryRowContext(ctx, `SELECT card_id, normal, foil, etched, cached_local, updated_at
		FROM card_prices WHERE card_id = ?`, id)
	card, err := scanCard(row.Scan)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("card", id)
	}
	if err != nil {
		return nil, errors.Storage("query card", err)
	}
	return card, nil
}

// UpsertCard implements Store
func (s *SQLiteStore) UpsertCard(ctx context.Context, row CardRow) error {
	if row.ID == "" {
		return errors.Input("card id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO card_prices
		(card_id, normal, foil, etched, cached_local, updated_at)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(card_id) DO UPDATE SET
			normal = excluded.normal,
			foil = excluded.foil,
			etched = excluded.etched,
			cached_local = excluded.cached_local,
			updated_at = excluded.updated_at`,
		row.ID, decimalOrNil(row.Prices.Normal), decimalOrNil(row.Prices.Foil),
		decimalOrNil(row.Prices.Etched), decimalOrNil(row.Prices.CachedLocal),
		time.Now().Unix(),
	)
	if err != nil {
		return errors.Storage("upsert card", err)
	}
	return nil
}

// ListCards implements Store. Keyset pagination keeps repricing
// transactions bounded and makes interrupted runs resumable.
func (s *SQLiteStore) ListCards(ctx context.Context, afterID string, limit int) ([]CardRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `SELECT card_id, normal, foil, etched, cached_local, updated_at
		FROM card_prices WHERE card_id > ? ORDER BY card_id LIMIT ?`, afterID, limit)
	if err != nil {
		return nil, errors.Storage("list cards", err)
	}
	defer rows.Close()

	var out []CardRow
	for rows.Next() {
		card, err := scanCard(rows.Scan)
		if err != nil {
			return nil, errors.Storage("scan card", err)
		}
		out = append(out, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("iterate cards", err)
	}
	return out, nil
}

// SetCachedLocal implements Store
func (s *SQLiteStore) SetCachedLocal(ctx context.Context, id string, v *decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE card_prices SET cached_local = ? WHERE card_id = ?`,
		decimalOrNil(v), id,
	)
	if err != nil {
		return errors.Storage("set cached local price", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NotFound("card", id)
	}
	return nil
}

// Close implements Store
func (s *SQLiteStore) Close() error {
	logging.Info("closing sqlite store")
	return s.db.Close()
}

func scanCard(scan func(dest ...any) error) (*CardRow, error) {
	var (
		card    CardRow
		normal  sql.NullString
		foil    sql.NullString
		etched  sql.NullString
		cached  sql.NullString
		updated int64
	)
	if err := scan(&card.ID, &normal, &foil, &etched, &cached, &updated); err != nil {
		return nil, err
	}

	var err error
	if card.Prices.Normal, err = nullDecimal(normal); err != nil {
		return nil, err
	}
	if card.Prices.Foil, err = nullDecimal(foil); err != nil {
		return nil, err
	}
	if card.Prices.Etched, err = nullDecimal(etched); err != nil {
		return nil, err
	}
	if card.Prices.CachedLocal, err = nullDecimal(cached); err != nil {
		return nil, err
	}
	card.UpdatedAt = time.Unix(updated, 0).UTC()
	return &card, nil
}

func nullDecimal(v sql.NullString) (*decimal.Decimal, error) {
	if !v.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func decimalOrNil(v *decimal.Decimal) any {
	if v == nil {
		return nil
	}
	return v.String()
}

func unixOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
