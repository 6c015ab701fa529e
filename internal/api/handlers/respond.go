package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/wonny/moat/backend/internal/analyzer"
	"github.com/wonny/moat/backend/internal/contracts"
	"github.com/wonny/moat/backend/internal/factors"
	"github.com/wonny/moat/backend/internal/overrides"
)

// maxBodyBytes limits JSON request bodies
const maxBodyBytes = 1 << 20

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var ve contracts.ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, factors.ErrUnknownSector),
		errors.Is(err, analyzer.ErrSectorRequired),
		errors.Is(err, analyzer.ErrInvalidInput),
		errors.Is(err, overrides.ErrInvalidTicker),
		errors.Is(err, overrides.ErrEmptyOverride):
		return http.StatusBadRequest
	case errors.Is(err, analyzer.ErrNoSnapshots):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes a bounded request body, rejecting unknown fields
func decodeJSON(r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
