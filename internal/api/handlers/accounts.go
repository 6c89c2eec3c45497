package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/folioview/folio-backend/internal/api/request"
	"github.com/folioview/folio-backend/internal/apperrors"
	"github.com/folioview/folio-backend/internal/repository"
	"github.com/folioview/folio-backend/internal/service"
	"github.com/folioview/folio-backend/internal/validation"
)

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	dealRepo       *repository.DealRepository
	summaryService *service.SummaryService
	refreshService *service.RefreshService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(dealRepo *repository.DealRepository, summaryService *service.SummaryService, refreshService *service.RefreshService) *AccountHandler {
	return &AccountHandler{
		dealRepo:       dealRepo,
		summaryService: summaryService,
		refreshService: refreshService,
	}
}

// Accounts lists the distinct account names present in the deal ledger.
//
// Endpoint: GET /api/accounts
func (h *AccountHandler) Accounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.dealRepo.Accounts()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve accounts", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, accounts)
}

// SummaryResponse represents one account's point-in-time summary row.
type SummaryResponse struct {
	Account          string   `json:"account"`
	Date             string   `json:"date"`
	Invested         float64  `json:"invested"`
	Money            float64  `json:"money"`
	Return           float64  `json:"return"`
	ReturnRate       float64  `json:"returnRate"`
	Cash             float64  `json:"cash"`
	Position         float64  `json:"position"`
	AnnualizedReturn *float64 `json:"annualizedReturn"`
}

// Summary returns per-account summaries as of a date plus an aggregate
// total row. The accounts parameter is a comma-separated list; empty means
// all accounts. The date defaults to today (clamped to the last finalized
// day).
//
// Endpoint: GET /api/accounts/summary?accounts=...&date=...
func (h *AccountHandler) Summary(w http.ResponseWriter, r *http.Request) {
	accounts := request.ParseAccounts(r.URL.Query().Get("accounts"))
	date, err := request.ParseDate(r.URL.Query().Get("date"), time.Now())
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date", err.Error())
		return
	}

	summaries, err := h.summaryService.Summaries(accounts, date)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoHistory) {
			respondError(w, http.StatusNotFound, "no history found", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to compute summary", err.Error())
		return
	}

	response := make([]SummaryResponse, len(summaries))
	for i, s := range summaries {
		response[i] = SummaryResponse{
			Account:          s.Account,
			Date:             s.Date.Format("2006-01-02"),
			Invested:         s.Invested,
			Money:            s.Money,
			Return:           s.Return,
			ReturnRate:       s.ReturnRate,
			Cash:             s.Cash,
			Position:         s.Position,
			AnnualizedReturn: s.AnnualizedReturn,
		}
	}

	respondJSON(w, http.StatusOK, response)
}

// HistoryRowResponse represents one day of an account's metric series.
type HistoryRowResponse struct {
	Account  string  `json:"account"`
	Date     string  `json:"date"`
	Invested float64 `json:"invested"`
	Money    float64 `json:"money"`
	Nav      float64 `json:"nav"`
	Cash     float64 `json:"cash"`
	Position float64 `json:"position"`
}

// History returns the stored daily metric series for the requested
// accounts, plus a synthetic total series when more than one account is
// requested.
//
// Endpoint: GET /api/accounts/history?accounts=...&start=...&end=...
func (h *AccountHandler) History(w http.ResponseWriter, r *http.Request) {
	accounts := request.ParseAccounts(r.URL.Query().Get("accounts"))

	startParam := r.URL.Query().Get("start")
	endParam := r.URL.Query().Get("end")
	if err := validation.ValidateDateRange(startParam, endParam); err != nil {
		respondError(w, http.StatusBadRequest, "invalid date range", err.Error())
		return
	}
	var start, end time.Time
	if startParam != "" {
		start, _ = time.Parse("2006-01-02", startParam)
	}
	if endParam != "" {
		end, _ = time.Parse("2006-01-02", endParam)
	}

	rows, err := h.summaryService.HistorySeries(accounts, start, end)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve history", err.Error())
		return
	}

	response := make([]HistoryRowResponse, len(rows))
	for i, row := range rows {
		response[i] = HistoryRowResponse{
			Account:  row.Account,
			Date:     row.Date.Format("2006-01-02"),
			Invested: row.Invested,
			Money:    row.Money,
			Nav:      row.Nav,
			Cash:     row.Cash,
			Position: row.Position,
		}
	}

	respondJSON(w, http.StatusOK, response)
}

// PositionResponse represents one line of the merged holdings valuation.
type PositionResponse struct {
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	Amount     float64  `json:"amount"`
	Money      float64  `json:"money"`
	Cost       *float64 `json:"cost"`
	AvgCost    *float64 `json:"avgCost"`
	Price      *float64 `json:"price"`
	PriceDate  *string  `json:"priceDate"`
	Return     *float64 `json:"return"`
	ReturnRate *float64 `json:"returnRate"`
}

// Positions returns the merged multi-account holdings valuation as of a
// date, sorted by market value descending.
//
// Endpoint: GET /api/accounts/positions?accounts=...&date=...
func (h *AccountHandler) Positions(w http.ResponseWriter, r *http.Request) {
	accounts := request.ParseAccounts(r.URL.Query().Get("accounts"))
	date, err := request.ParseDate(r.URL.Query().Get("date"), time.Now())
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date", err.Error())
		return
	}

	positions, err := h.summaryService.Positions(accounts, date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute positions", err.Error())
		return
	}

	response := make([]PositionResponse, len(positions))
	for i, p := range positions {
		response[i] = PositionResponse{
			Code:       p.Code,
			Name:       p.Name,
			Amount:     p.Amount,
			Money:      p.Money,
			Cost:       p.Cost,
			AvgCost:    p.AvgCost,
			Price:      p.Price,
			Return:     p.Return,
			ReturnRate: p.ReturnRate,
		}
		if p.PriceDate != nil {
			formatted := p.PriceDate.Format("2006-01-02")
			response[i].PriceDate = &formatted
		}
	}

	respondJSON(w, http.StatusOK, response)
}

// Refresh rebuilds snapshots and history for the accounts named in the
// request body, or for every account when the body is empty.
//
// Endpoint: POST /api/accounts/refresh
func (h *AccountHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req request.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	results, err := h.refreshService.Refresh(req.Accounts)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoSnapshots) {
			respondError(w, http.StatusNotFound, "no snapshots for account", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "refresh failed", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, results)
}
