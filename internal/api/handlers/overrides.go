package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/moat/backend/internal/contracts"
	"github.com/wonny/moat/backend/internal/overrides"
	"github.com/wonny/moat/backend/pkg/logger"
)

// OverridesHandler handles override set endpoints
// ⭐ SSOT: 오버라이드 API 핸들러는 이 구조체에서만
type OverridesHandler struct {
	store  *overrides.Store
	logger *logger.Logger
}

// NewOverridesHandler creates a new overrides handler
func NewOverridesHandler(store *overrides.Store, log *logger.Logger) *OverridesHandler {
	return &OverridesHandler{
		store:  store,
		logger: log,
	}
}

// Get returns the stored override set
// GET /api/overrides
func (h *OverridesHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Load(r.Context()))
}

// Replace replaces the whole override set
// PUT /api/overrides
func (h *OverridesHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var set contracts.OverrideSet
	if err := decodeJSON(r, &set); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Save(r.Context(), set); err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, set.Normalize())
}

// Reset clears all overrides
// DELETE /api/overrides
func (h *OverridesHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Reset(r.Context()); err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, contracts.EmptyOverrides())
}

// SetSector merges a partial record into a sector override
// PUT /api/overrides/sectors/{name}
func (h *OverridesHandler) SetSector(w http.ResponseWriter, r *http.Request) {
	var p contracts.PartialFactorRecord
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	set, err := h.store.SetSector(r.Context(), mux.Vars(r)["name"], p)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, set)
}

// ClearSector removes a sector override
// DELETE /api/overrides/sectors/{name}
func (h *OverridesHandler) ClearSector(w http.ResponseWriter, r *http.Request) {
	set, err := h.store.ClearSector(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, set)
}

// SetTicker merges a partial record into a ticker override
// PUT /api/overrides/tickers/{ticker}
func (h *OverridesHandler) SetTicker(w http.ResponseWriter, r *http.Request) {
	var p contracts.PartialFactorRecord
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	set, err := h.store.SetTicker(r.Context(), mux.Vars(r)["ticker"], p)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, set)
}

// ClearTicker removes a ticker override
// DELETE /api/overrides/tickers/{ticker}
func (h *OverridesHandler) ClearTicker(w http.ResponseWriter, r *http.Request) {
	set, err := h.store.ClearTicker(r.Context(), mux.Vars(r)["ticker"])
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, set)
}

func (h *OverridesHandler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).Error("Override mutation failed")
		respondError(w, status, "failed to update overrides")
		return
	}
	respondError(w, status, err.Error())
}
