package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/moat/backend/internal/analyzer"
	"github.com/wonny/moat/backend/internal/contracts"
	"github.com/wonny/moat/backend/pkg/logger"
)

// ValuationHandler handles sector and ticker valuation endpoints
// ⭐ SSOT: 밸류에이션 API 핸들러는 이 구조체에서만
type ValuationHandler struct {
	analyzer *analyzer.Analyzer
	logger   *logger.Logger
}

// NewValuationHandler creates a new valuation handler
func NewValuationHandler(a *analyzer.Analyzer, log *logger.Logger) *ValuationHandler {
	return &ValuationHandler{
		analyzer: a,
		logger:   log,
	}
}

// SectorsResponse is the ordered composite table
type SectorsResponse struct {
	Count   int                         `json:"count"`
	Sectors []contracts.SectorComposite `json:"sectors"`
}

// GetSectors returns all sector composites in table order
// GET /api/sectors
func (h *ValuationHandler) GetSectors(w http.ResponseWriter, r *http.Request) {
	set := h.analyzer.Sectors(r.Context())
	respondJSON(w, http.StatusOK, SectorsResponse{
		Count:   set.Count(),
		Sectors: set.Ordered(),
	})
}

// GetSector returns one sector composite
// GET /api/sectors/{name}
func (h *ValuationHandler) GetSector(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	composite, ok := h.analyzer.Sectors(r.Context()).Get(name)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("unknown sector %q", name))
		return
	}
	respondJSON(w, http.StatusOK, composite)
}

// ValuationRequest is the body of POST /api/valuation
type ValuationRequest struct {
	Beta          *float64                `json:"beta,omitempty"`
	AvgRevGrowth  *float64                `json:"avgRevGrowth,omitempty"`
	CompositeRisk *float64                `json:"compositeRisk,omitempty"`
	Factors       *contracts.FactorRecord `json:"factors"`
}

// PostValuation values explicit inputs
// POST /api/valuation
func (h *ValuationHandler) PostValuation(w http.ResponseWriter, r *http.Request) {
	var req ValuationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Factors == nil {
		respondError(w, http.StatusBadRequest, "factors is required")
		return
	}

	quote := contracts.MarketQuote{Beta: req.Beta, AvgRevGrowth: req.AvgRevGrowth}
	result, err := h.analyzer.Compute(quote, *req.Factors, &contracts.RiskAdjustment{CompositeRisk: req.CompositeRisk})
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetTickerValuation values a ticker against its sector and the stored overrides
// GET /api/tickers/{ticker}/valuation?sector=&beta=&growth=&risk=&live=
func (h *ValuationHandler) GetTickerValuation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	beta, err := floatParam(q.Get("beta"), "beta")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	growth, err := floatParam(q.Get("growth"), "growth")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	risk, err := floatParam(q.Get("risk"), "risk")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	live := false
	if s := q.Get("live"); s != "" {
		if live, err = strconv.ParseBool(s); err != nil {
			respondError(w, http.StatusBadRequest, "live must be a boolean")
			return
		}
	}

	v, err := h.analyzer.Value(r.Context(), analyzer.Request{
		Ticker: mux.Vars(r)["ticker"],
		Sector: q.Get("sector"),
		Quote:  &contracts.MarketQuote{Beta: beta, AvgRevGrowth: growth},
		Risk:   &contracts.RiskAdjustment{CompositeRisk: risk},
		Live:   live,
	})
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).Error("Failed to value ticker")
		}
		respondError(w, status, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// GetTickerHistory returns stored snapshots of a ticker
// GET /api/tickers/{ticker}/history?limit=
func (h *ValuationHandler) GetTickerHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	history, err := h.analyzer.History(r.Context(), mux.Vars(r)["ticker"], limit)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).Error("Failed to get ticker history")
		}
		respondError(w, status, err.Error())
		return
	}
	if history == nil {
		history = []contracts.ValuationSnapshot{}
	}
	respondJSON(w, http.StatusOK, history)
}

// floatParam parses an optional numeric query parameter
func floatParam(s, name string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &v, nil
}
