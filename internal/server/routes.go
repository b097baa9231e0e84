package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mhayashi/kabuto/internal/common"
	"github.com/mhayashi/kabuto/internal/interfaces"
	"github.com/mhayashi/kabuto/internal/models"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Portfolio views
	mux.HandleFunc("/api/portfolio", s.handlePortfolio)
	mux.HandleFunc("/api/dividend", s.handleDividend)
	mux.HandleFunc("/api/dashboard", s.handleDashboard)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/currency", s.handleCurrency)
	mux.HandleFunc("/api/performance", s.handlePerformance)
	mux.HandleFunc("/api/performance/recalculate", s.handleRecalculate)
	mux.HandleFunc("/api/reports/", s.handleReport)
	mux.HandleFunc("/api/charts/growth.png", s.handleGrowthChart)

	// Collection
	mux.HandleFunc("/api/collect", s.handleCollect)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handlePortfolio serves the holdings list and accepts new ledger rows.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	if r.Method == http.MethodPost {
		var row models.Transaction
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		stored, err := s.app.PortfolioService.AddTransaction(r.Context(), row)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		WriteJSON(w, http.StatusCreated, stored)
		return
	}

	view, err := s.app.PortfolioService.GetPortfolio(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

// handleDividend serves the dividend history and accepts new payments.
func (s *Server) handleDividend(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	if r.Method == http.MethodPost {
		var row models.DividendRecord
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		stored, err := s.app.PortfolioService.AddDividend(r.Context(), row)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		WriteJSON(w, http.StatusCreated, stored)
		return
	}

	summary, err := s.app.PortfolioService.GetDividends(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	dashboard, err := s.app.PortfolioService.GetDashboard(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, dashboard)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	opts := interfaces.HistoryOptions{
		Period: r.URL.Query().Get("period"),
		Stock:  r.URL.Query().Get("stock"),
	}
	switch opts.Period {
	case "", "all", "6months", "1year":
	default:
		WriteError(w, http.StatusBadRequest, "period must be one of: 6months, 1year, all")
		return
	}

	history, err := s.app.PortfolioService.GetHistory(r.Context(), opts)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, history)
}

func (s *Server) handleCurrency(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	exposures, err := s.app.PortfolioService.GetCurrencyExposure(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, exposures)
}

// performanceResponse pairs the records with the non-fatal warnings the
// calculation produced, so callers can surface data problems.
type performanceResponse struct {
	Records  interface{} `json:"records"`
	Warnings interface{} `json:"warnings,omitempty"`
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	records, warnings, err := s.app.PortfolioService.CalculatePerformance(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := performanceResponse{Records: records}
	if len(warnings) > 0 {
		resp.Warnings = warnings
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	records, warnings, err := s.app.PortfolioService.Recalculate(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := performanceResponse{Records: records}
	if len(warnings) > 0 {
		resp.Warnings = warnings
	}
	WriteJSON(w, http.StatusOK, resp)
}

// handleReport handles GET /api/reports/{year}/{month}.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/reports/"), "/")
	if len(parts) != 2 {
		WriteError(w, http.StatusBadRequest, "expected /api/reports/{year}/{month}")
		return
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 1970 || year > 9999 {
		WriteError(w, http.StatusBadRequest, "invalid year")
		return
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		WriteError(w, http.StatusBadRequest, "invalid month")
		return
	}

	report, err := s.app.PortfolioService.GetMonthlyReport(r.Context(), year, month)
	if errors.Is(err, interfaces.ErrNoPerformanceData) {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

func (s *Server) handleGrowthChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	png, err := s.app.PortfolioService.RenderGrowthChart(r.Context())
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// handleCollect triggers a month-end collection run, defaulting to the
// previous calendar month.
func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	now := time.Now().UTC()
	target := now.AddDate(0, 0, -now.Day())
	year, month := target.Year(), int(target.Month())

	q := r.URL.Query()
	if y := q.Get("year"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = parsed
	}
	if m := q.Get("month"); m != "" {
		parsed, err := strconv.Atoi(m)
		if err != nil || parsed < 1 || parsed > 12 {
			WriteError(w, http.StatusBadRequest, "invalid month")
			return
		}
		month = parsed
	}

	result, err := s.app.MarketService.CollectMonthEnd(r.Context(), year, time.Month(month))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, result)
}
