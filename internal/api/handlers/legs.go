package handlers

import (
	"context"
	"freight-tariff-service/internal/api/dto"
	"freight-tariff-service/internal/domain"
	"net/http"

	"github.com/google/uuid"
)

type LegReader interface {
	GetLeg(ctx context.Context, id uuid.UUID) (domain.Leg, error)
}

type LegLifecycle interface {
	Assign(ctx context.Context, legID uuid.UUID, vehicleID int64, carrierID string) (domain.Leg, error)
	Start(ctx context.Context, legID uuid.UUID) (domain.Leg, error)
	Finish(ctx context.Context, legID uuid.UUID) (domain.Leg, error)
}

// LegHandler drives individual legs through their lifecycle.
type LegHandler struct {
	Reader    LegReader
	Lifecycle LegLifecycle
}

func (h *LegHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	leg, err := h.Reader.GetLeg(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toLegResponse(leg))
}

func (h *LegHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req dto.AssignLegRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if req.VehicleID <= 0 {
		writeError(w, r, http.StatusBadRequest, "validation_error", "vehicle_id is required")
		return
	}

	leg, err := h.Lifecycle.Assign(r.Context(), id, req.VehicleID, req.CarrierID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toLegResponse(leg))
}

func (h *LegHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Lifecycle.Start)
}

func (h *LegHandler) Finish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Lifecycle.Finish)
}

func (h *LegHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, legID uuid.UUID) (domain.Leg, error),
) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	leg, err := op(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toLegResponse(leg))
}
