// Package api - Thin, deterministic API layer
// The API is ONLY responsible for: input ingestion, engine orchestration,
// output serialization. The API NEVER performs pricing logic.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cardpricer/core/format"
	"cardpricer/core/pricing"
	"cardpricer/core/resolve"
	"cardpricer/core/types"
	"cardpricer/db"
	"cardpricer/internal/errors"
)

// Server is the API server
type Server struct {
	mux     *http.ServeMux
	version string
	store   db.Store
}

// NewServer creates a new API server without a configuration store; all
// pricing uses the documented fallback config.
func NewServer(version string) *Server {
	return NewServerWithStore(version, nil)
}

// NewServerWithStore creates a new API server backed by a store
func NewServerWithStore(version string, store db.Store) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		version: version,
		store:   store,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	// Core endpoints
	s.mux.HandleFunc("POST /preview", s.handlePreview)
	s.mux.HandleFunc("POST /display-price", s.handleDisplayPrice)
	s.mux.HandleFunc("GET /cards/{id}/price", s.handleCardPrice)

	// Configuration boundary
	s.mux.HandleFunc("GET /config", s.handleGetConfig)
	s.mux.HandleFunc("PUT /config", s.handlePutConfig)

	// Supporting endpoints
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
}

// currentConfig resolves the active engine config, substituting the
// fallback when the store is missing or unreachable (degraded mode).
func (s *Server) currentConfig(r *http.Request, override *pricing.Config) (pricing.Config, bool) {
	if override != nil {
		return *override, false
	}
	if s.store == nil {
		return pricing.Fallback(), true
	}
	cfg, err := s.store.LoadConfig(r.Context(), time.Now())
	if err != nil {
		return pricing.Fallback(), true
	}
	return cfg, false
}

// handlePreview handles POST /preview
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}

	src, err := parseSourcePrice(req.SourcePrice)
	if err != nil {
		s.writeError(w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	if req.Config != nil {
		if err := req.Config.Validate(); err != nil {
			s.writeError(w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
			return
		}
	}
	cfg, degraded := s.currentConfig(r, req.Config)

	breakdown := pricing.Explain(src, cfg)
	s.writeJSON(w, PreviewResponse{
		RequestID:       uuid.NewString(),
		Timestamp:       time.Now().UTC(),
		Breakdown:       breakdown,
		FormattedLocal:  format.FormatLocal(&breakdown.Final),
		FormattedSource: format.FormatSource(&src),
		Degraded:        degraded,
	}, http.StatusOK)
}

// handleDisplayPrice handles POST /display-price
func (s *Server) handleDisplayPrice(w http.ResponseWriter, r *http.Request) {
	var req DisplayPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}
	for _, f := range req.Selection {
		if !f.Valid() {
			s.writeError(w, "VALIDATION_ERROR", "unknown finish: "+string(f), http.StatusBadRequest)
			return
		}
	}
	if req.Config != nil {
		if err := req.Config.Validate(); err != nil {
			s.writeError(w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
			return
		}
	}
	cfg, degraded := s.currentConfig(r, req.Config)

	query := resolve.Query{Selection: req.Selection, PreferCache: true}
	if req.PreferCache != nil {
		query.PreferCache = *req.PreferCache
	}
	price := resolve.DisplayPrice(req.Card, cfg, query)

	s.writeJSON(w, DisplayPriceResponse{
		RequestID:    uuid.NewString(),
		DisplayPrice: price,
		Currency:     displayCurrency(cfg),
		Formatted:    formatDisplay(cfg, price),
		Degraded:     degraded,
	}, http.StatusOK)
}

// handleCardPrice handles GET /cards/{id}/price
func (s *Server) handleCardPrice(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, "NO_STORE", "card store not configured", http.StatusServiceUnavailable)
		return
	}
	id := r.PathValue("id")

	card, err := s.store.GetCard(r.Context(), id)
	if err != nil {
		if errors.IsType(err, errors.TypeNotFound) {
			s.writeError(w, "NOT_FOUND", err.Error(), http.StatusNotFound)
			return
		}
		s.writeError(w, "STORAGE_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	cfg, degraded := s.currentConfig(r, nil)

	query := resolve.DefaultQuery()
	if f := types.Finish(r.URL.Query().Get("finish")); f != "" {
		if !f.Valid() {
			s.writeError(w, "VALIDATION_ERROR", "unknown finish: "+string(f), http.StatusBadRequest)
			return
		}
		query = resolve.ForFinish(f)
	}
	price := resolve.DisplayPrice(card.Prices, cfg, query)

	s.writeJSON(w, CardPriceResponse{
		RequestID:    uuid.NewString(),
		CardID:       card.ID,
		DisplayPrice: price,
		Currency:     displayCurrency(cfg),
		Formatted:    formatDisplay(cfg, price),
		Degraded:     degraded,
	}, http.StatusOK)
}

// handleGetConfig handles GET /config
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	if s.store != nil {
		if row, err := s.store.GetConfigRow(r.Context()); err == nil {
			s.writeJSON(w, ConfigResponse{
				Config:    *row,
				Effective: row.Resolve(now),
			}, http.StatusOK)
			return
		}
	}
	fb := pricing.Fallback()
	s.writeJSON(w, ConfigResponse{
		Config:    fallbackRow(),
		Effective: fb,
		Degraded:  true,
	}, http.StatusOK)
}

// handlePutConfig handles PUT /config
func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, "NO_STORE", "configuration store not configured", http.StatusServiceUnavailable)
		return
	}

	var row db.ConfigRow
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.SaveConfig(r.Context(), row); err != nil {
		if errors.IsType(err, errors.TypeConfig) {
			s.writeError(w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
			return
		}
		s.writeError(w, "STORAGE_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, map[string]string{"status": "saved"}, http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"version": s.version}, http.StatusOK)
}

// parseSourcePrice enforces the preview input contract: a decimal string
// that is positive and finite.
func parseSourcePrice(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Decimal{}, errors.Input("source_price is required")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, errors.Newf(errors.TypeInput, "source_price is not a number: %q", raw)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, errors.Newf(errors.TypeInput, "source_price must be positive, got %s", d)
	}
	return d, nil
}

func displayCurrency(cfg pricing.Config) types.Currency {
	if cfg.UseLocalCurrency {
		return types.CurrencyCLP
	}
	return types.CurrencyUSD
}

func formatDisplay(cfg pricing.Config, v *decimal.Decimal) string {
	if cfg.UseLocalCurrency {
		return format.FormatLocal(v)
	}
	return format.FormatSource(v)
}

// fallbackRow mirrors pricing.Fallback in row form for GET /config.
func fallbackRow() db.ConfigRow {
	fb := pricing.Fallback()
	return db.ConfigRow{
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
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, code, message string, status int) {
	s.writeJSON(w, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	}, status)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
