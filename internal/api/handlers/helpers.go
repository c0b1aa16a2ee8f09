package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"freight-tariff-service/internal/api/dto"
	"freight-tariff-service/internal/domain"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Request bodies are small JSON documents; anything larger is rejected.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.WarnContext(r.Context(), "encode response failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, r, status, dto.ErrorResponse{Error: dto.ErrorDetail{Code: code, Message: msg}})
}

// writeServiceError maps a service error onto its HTTP status by kind.
// Unclassified errors are logged and reported as a plain 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var capErr *domain.CapacityError
	switch {
	case errors.As(err, &capErr):
		writeJSON(w, r, http.StatusUnprocessableEntity, dto.ErrorResponse{Error: dto.ErrorDetail{
			Code:    "capacity_exceeded",
			Message: capErr.Error(),
			Details: map[string]any{
				"vehicle_id": capErr.VehicleID,
				"dimension":  capErr.Dimension,
				"unit":       capErr.Unit,
				"cargo":      capErr.Cargo,
				"max":        capErr.Max,
				"excess":     capErr.Excess(),
			},
		}})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrValidation):
		writeError(w, r, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, r, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, r, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrNoEligibleVehicles):
		writeError(w, r, http.StatusUnprocessableEntity, "no_eligible_vehicles", err.Error())
	case errors.Is(err, domain.ErrTariffUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "tariff_unavailable", err.Error())
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "upstream_unavailable", err.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimiddleware.GetReqID(r.Context()),
			"error", err,
		)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// decodeJSON reads exactly one JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON object")
	}
	return nil
}

// pathID parses a uuid path parameter, writing a 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "validation_error", fmt.Sprintf("%s %q is not a valid uuid", name, raw))
		return uuid.Nil, false
	}
	return id, true
}
