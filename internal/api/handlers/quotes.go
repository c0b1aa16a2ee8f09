package handlers

import (
	"context"
	"fmt"
	"freight-tariff-service/internal/api/dto"
	"freight-tariff-service/internal/domain"
	"freight-tariff-service/internal/services"
	"net/http"
)

type QuoteCalculator interface {
	ConfirmedWithFleet(ctx context.Context, cargo domain.Cargo, legs []services.LegInput) (services.CostBreakdown, error)
	ApproximateFromFleet(ctx context.Context, cargo domain.Cargo, legs []services.LegInput, dwellDays int) (services.Approximation, error)
}

// QuoteHandler prices ad-hoc legs without creating a shipment.
type QuoteHandler struct {
	Costs QuoteCalculator
}

func (h *QuoteHandler) Confirmed(w http.ResponseWriter, r *http.Request) {
	cargo, legs, _, ok := h.decode(w, r)
	if !ok {
		return
	}

	b, err := h.Costs.ConfirmedWithFleet(r.Context(), cargo, legs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toBreakdownResponse(b))
}

func (h *QuoteHandler) Approximate(w http.ResponseWriter, r *http.Request) {
	cargo, legs, dwellDays, ok := h.decode(w, r)
	if !ok {
		return
	}

	a, err := h.Costs.ApproximateFromFleet(r.Context(), cargo, legs, dwellDays)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toApproximationResponse(a))
}

func (h *QuoteHandler) decode(w http.ResponseWriter, r *http.Request) (domain.Cargo, []services.LegInput, int, bool) {
	var req dto.QuoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return domain.Cargo{}, nil, 0, false
	}

	cargo, legs, err := quoteInput(req)
	if err != nil {
		writeServiceError(w, r, err)
		return domain.Cargo{}, nil, 0, false
	}
	return cargo, legs, req.DwellDays, true
}

func quoteInput(req dto.QuoteRequest) (domain.Cargo, []services.LegInput, error) {
	cargo := domain.Cargo{
		WeightKg:    req.Cargo.WeightKg,
		VolumeM3:    req.Cargo.VolumeM3,
		Description: req.Cargo.Description,
	}
	if err := cargo.Validate(); err != nil {
		return domain.Cargo{}, nil, err
	}
	if len(req.Legs) == 0 {
		return domain.Cargo{}, nil, fmt.Errorf("%w: at least one leg is required", domain.ErrValidation)
	}
	if req.DwellDays < 0 {
		return domain.Cargo{}, nil, fmt.Errorf("%w: dwell_days must not be negative", domain.ErrValidation)
	}

	legs := make([]services.LegInput, 0, len(req.Legs))
	for i, l := range req.Legs {
		legType, err := domain.ParseLegType(l.Type)
		if err != nil {
			return domain.Cargo{}, nil, fmt.Errorf("legs[%d]: %w", i, err)
		}
		if l.DistanceKm.IsNegative() {
			return domain.Cargo{}, nil, fmt.Errorf("%w: legs[%d]: distance_km must not be negative", domain.ErrValidation, i)
		}
		if l.DwellDays < 0 {
			return domain.Cargo{}, nil, fmt.Errorf("%w: legs[%d]: dwell_days must not be negative", domain.ErrValidation, i)
		}
		legs = append(legs, services.LegInput{
			Type:       legType,
			DistanceKm: l.DistanceKm,
			DwellDays:  l.DwellDays,
			VehicleID:  l.VehicleID,
		})
	}
	return cargo, legs, nil
}
