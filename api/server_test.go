package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"cardpricer/core/format"
	"cardpricer/core/types"
	"cardpricer/db"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestPreviewBreakdown(t *testing.T) {
	s := NewServer("test")

	rec := doJSON(t, s, http.MethodPost, "/preview", `{"source_price":"3"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp PreviewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !resp.Breakdown.BaseLocal.Equal(dec("2850")) {
		t.Errorf("base = %s, want 2850", resp.Breakdown.BaseLocal)
	}
	if !resp.Breakdown.Alpha.Equal(dec("0.9")) {
		t.Errorf("alpha = %s, want 0.9", resp.Breakdown.Alpha)
	}
	if !resp.Breakdown.PreFloor.Equal(dec("5415")) {
		t.Errorf("pre-floor = %s, want 5415", resp.Breakdown.PreFloor)
	}
	if !resp.Breakdown.Final.Equal(dec("5500")) {
		t.Errorf("final = %s, want 5500", resp.Breakdown.Final)
	}
	if want := format.FormatLocal(&resp.Breakdown.Final); resp.FormattedLocal != want {
		t.Errorf("formatted local = %q, want %q", resp.FormattedLocal, want)
	}
	if resp.FormattedSource != "US$3" {
		t.Errorf("formatted source = %q, want US$3", resp.FormattedSource)
	}
	if !resp.Degraded {
		t.Error("no store configured: response must be flagged degraded")
	}
	if resp.RequestID == "" {
		t.Error("request id missing")
	}
}

func TestPreviewRejectsBadInput(t *testing.T) {
	s := NewServer("test")

	tests := []struct {
		name string
		body string
	}{
		{"missing price", `{}`},
		{"not a number", `{"source_price":"abc"}`},
		{"zero", `{"source_price":"0"}`},
		{"negative", `{"source_price":"-3"}`},
		{"bad json", `{`},
	}
	for _, tt := range tests {
		rec := doJSON(t, s, http.MethodPost, "/preview", tt.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tt.name, rec.Code)
		}
	}
}

func TestDisplayPriceCacheTrust(t *testing.T) {
	s := NewServer("test")

	body := `{"card":{"normal":"3","cached_local":"4200"}}`
	rec := doJSON(t, s, http.MethodPost, "/display-price", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp DisplayPriceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.DisplayPrice == nil || !resp.DisplayPrice.Equal(dec("4200")) {
		t.Errorf("display price = %v, want cached 4200", resp.DisplayPrice)
	}
	if resp.Currency != types.CurrencyCLP {
		t.Errorf("currency = %s, want CLP", resp.Currency)
	}
}

func TestDisplayPriceRecomputePaths(t *testing.T) {
	s := NewServer("test")

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"explicit selection bypasses cache",
			`{"card":{"normal":"3","cached_local":"4200"},"selection":["normal"]}`,
			"5500",
		},
		{
			"prefer_cache false recomputes",
			`{"card":{"normal":"3","cached_local":"4200"},"prefer_cache":false}`,
			"5500",
		},
		{
			"etched preferred over normal",
			`{"card":{"normal":"3","etched":"10"},"prefer_cache":false}`,
			// 10*950*1.7 = 16150 -> 16500
			"16500",
		},
	}
	for _, tt := range tests {
		rec := doJSON(t, s, http.MethodPost, "/display-price", tt.body)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, body %s", tt.name, rec.Code, rec.Body.String())
		}
		var resp DisplayPriceResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: decode: %v", tt.name, err)
		}
		if resp.DisplayPrice == nil || !resp.DisplayPrice.Equal(dec(tt.want)) {
			t.Errorf("%s: display price = %v, want %s", tt.name, resp.DisplayPrice, tt.want)
		}
	}
}

func TestDisplayPriceMissingDataIsNull(t *testing.T) {
	s := NewServer("test")

	rec := doJSON(t, s, http.MethodPost, "/display-price", `{"card":{}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp DisplayPriceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.DisplayPrice != nil {
		t.Errorf("display price = %s, want null", resp.DisplayPrice)
	}
	if resp.Formatted != format.NotAvailable {
		t.Errorf("formatted = %q, want %q", resp.Formatted, format.NotAvailable)
	}
}

func TestDisplayPriceRejectsUnknownFinish(t *testing.T) {
	s := NewServer("test")

	rec := doJSON(t, s, http.MethodPost, "/display-price", `{"card":{"normal":"3"},"selection":["holo"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func openServerWithStore(t *testing.T) (*Server, *db.SQLiteStore) {
	t.Helper()
	store, err := db.NewSQLiteStore(filepath.Join(t.TempDir(), "pricing.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewServerWithStore("test", store), store
}

func TestConfigWriteBoundary(t *testing.T) {
	s, _ := openServerWithStore(t)

	valid := `{"use_local_currency":true,"fx_rate":"900","tier_low":"5","tier_mid":"20",
		"alpha_low":"0.9","alpha_mid":"0.7","alpha_high":"0.5","beta_additive":"0",
		"price_floor":"500","round_step":"500"}`
	rec := doJSON(t, s, http.MethodPut, "/config", valid)
	if rec.Code != http.StatusOK {
		t.Fatalf("put valid config: status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Inverted tiers must be rejected at the write boundary
	invalid := strings.Replace(valid, `"tier_low":"5"`, `"tier_low":"25"`, 1)
	rec = doJSON(t, s, http.MethodPut, "/config", invalid)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("put invalid config: status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/config", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get config: status = %d", rec.Code)
	}
	var resp ConfigResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Degraded {
		t.Error("stored config must not be degraded")
	}
	if !resp.Config.FXRate.Equal(dec("900")) {
		t.Errorf("fx rate = %s, want 900 (rejected update must not overwrite)", resp.Config.FXRate)
	}
}

func TestConfigDegradedFallback(t *testing.T) {
	s := NewServer("test")

	rec := doJSON(t, s, http.MethodGet, "/config", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp ConfigResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Degraded {
		t.Error("missing store must flag degraded")
	}
	if !resp.Config.FXRate.Equal(dec("950")) {
		t.Errorf("fallback fx = %s, want 950", resp.Config.FXRate)
	}
}

func TestCardPriceEndpoint(t *testing.T) {
	s, store := openServerWithStore(t)

	err := store.UpsertCard(context.Background(), db.CardRow{
		ID:     "mh3-ring",
		Prices: types.CardPriceSet{Normal: decPtr("3"), Etched: decPtr("10")},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Aggregate: etched wins, fallback config (no stored row) -> degraded
	rec := doJSON(t, s, http.MethodGet, "/cards/mh3-ring/price", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp CardPriceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.DisplayPrice == nil || !resp.DisplayPrice.Equal(dec("16500")) {
		t.Errorf("display price = %v, want 16500", resp.DisplayPrice)
	}

	// Explicit finish via query param
	rec = doJSON(t, s, http.MethodGet, "/cards/mh3-ring/price?finish=normal", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.DisplayPrice == nil || !resp.DisplayPrice.Equal(dec("5500")) {
		t.Errorf("normal finish = %v, want 5500", resp.DisplayPrice)
	}

	rec = doJSON(t, s, http.MethodGet, "/cards/unknown/price", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown card: status = %d, want 404", rec.Code)
	}
}
