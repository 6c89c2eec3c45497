package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/folioview/folio-backend/internal/repository"
	"github.com/folioview/folio-backend/internal/validation"
)

// AssetHandler handles asset-related HTTP requests
type AssetHandler struct {
	assetRepo *repository.AssetRepository
	priceRepo *repository.PriceRepository
}

// NewAssetHandler creates a new AssetHandler
func NewAssetHandler(assetRepo *repository.AssetRepository, priceRepo *repository.PriceRepository) *AssetHandler {
	return &AssetHandler{assetRepo: assetRepo, priceRepo: priceRepo}
}

// AssetResponse represents one registered asset
type AssetResponse struct {
	Code      string `json:"code"`
	ShortCode string `json:"shortCode"`
	Name      string `json:"name"`
	Category  string `json:"category"`
}

// Assets lists every registered asset.
//
// Endpoint: GET /api/assets
func (h *AssetHandler) Assets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.assetRepo.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve assets", err.Error())
		return
	}

	response := make([]AssetResponse, len(assets))
	for i, a := range assets {
		response[i] = AssetResponse{
			Code:      a.Code,
			ShortCode: a.ShortCode,
			Name:      a.Name,
			Category:  a.Category,
		}
	}

	respondJSON(w, http.StatusOK, response)
}

// PricePointResponse represents one price observation. Fields not carried
// by the observation (OHLC for funds, NAV for exchange-traded codes) are
// omitted.
type PricePointResponse struct {
	Date        string   `json:"date"`
	Open        *float64 `json:"open,omitempty"`
	Close       *float64 `json:"close,omitempty"`
	High        *float64 `json:"high,omitempty"`
	Low         *float64 `json:"low,omitempty"`
	Nav         *float64 `json:"nav,omitempty"`
	Auv         *float64 `json:"auv,omitempty"`
	BonusAction string   `json:"bonusAction,omitempty"`
	BonusValue  *float64 `json:"bonusValue,omitempty"`
}

// Prices returns an asset's price history, optionally bounded by start and
// end query parameters (YYYY-MM-DD, inclusive).
//
// Endpoint: GET /api/assets/{code}/prices?start=...&end=...
func (h *AssetHandler) Prices(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	startParam := r.URL.Query().Get("start")
	endParam := r.URL.Query().Get("end")
	if err := validation.ValidateDateRange(startParam, endParam); err != nil {
		respondError(w, http.StatusBadRequest, "invalid date range", err.Error())
		return
	}

	if _, err := h.assetRepo.Get(code); err != nil {
		respondError(w, http.StatusNotFound, "asset not found", code)
		return
	}

	var start, end time.Time
	if startParam != "" {
		start, _ = time.Parse("2006-01-02", startParam)
	}
	if endParam != "" {
		end, _ = time.Parse("2006-01-02", endParam)
	}

	points, err := h.priceRepo.ListRange(code, start, end)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve prices", err.Error())
		return
	}

	response := make([]PricePointResponse, len(points))
	for i, p := range points {
		response[i] = PricePointResponse{
			Date:        p.Date.Format("2006-01-02"),
			Open:        nullable(p.Open),
			Close:       nullable(p.Close),
			High:        nullable(p.High),
			Low:         nullable(p.Low),
			Nav:         nullable(p.Nav),
			Auv:         nullable(p.Auv),
			BonusAction: p.BonusAction.String,
			BonusValue:  nullable(p.BonusValue),
		}
	}

	respondJSON(w, http.StatusOK, response)
}

func nullable(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	return &f.Float64
}
