package handlers

import (
	"context"
	"freight-tariff-service/internal/api/dto"
	"freight-tariff-service/internal/domain"
	"freight-tariff-service/internal/services"
	"net/http"

	"github.com/google/uuid"
)

type ShipmentService interface {
	Create(ctx context.Context, req services.NewShipment) (domain.Shipment, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Shipment, error)
	Cancel(ctx context.Context, id uuid.UUID) (domain.Shipment, error)
	TentativeRoutes(ctx context.Context, id uuid.UUID) ([]services.RouteCandidate, error)
	AssignRoute(ctx context.Context, id uuid.UUID, candidateIndex, dwellDays int) (domain.Route, error)
	GetRoute(ctx context.Context, shipmentID uuid.UUID) (domain.Route, error)
	PriceRoute(ctx context.Context, shipmentID uuid.UUID) (services.CostBreakdown, error)
}

// ShipmentHandler exposes shipment intake, route selection and cancellation.
type ShipmentHandler struct {
	Service ShipmentService
}

func (h *ShipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateShipmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	shipment, err := h.Service.Create(r.Context(), services.NewShipment{
		ClientID:    req.ClientID,
		Origin:      fromLocation(req.Origin),
		Destination: fromLocation(req.Destination),
		WeightKg:    req.Cargo.WeightKg,
		VolumeM3:    req.Cargo.VolumeM3,
		Description: req.Cargo.Description,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, toShipmentResponse(shipment))
}

func (h *ShipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	shipment, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toShipmentResponse(shipment))
}

func (h *ShipmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	shipment, err := h.Service.Cancel(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toShipmentResponse(shipment))
}

// TentativeRoutes lists the candidate routes in the order AssignRoute indexes them.
func (h *ShipmentHandler) TentativeRoutes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	candidates, err := h.Service.TentativeRoutes(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toCandidatesResponse(candidates))
}

func (h *ShipmentHandler) AssignRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req dto.AssignRouteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	route, err := h.Service.AssignRoute(r.Context(), id, req.CandidateIndex, req.DwellDays)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, toRouteResponse(route))
}

func (h *ShipmentHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	route, err := h.Service.GetRoute(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toRouteResponse(route))
}

func (h *ShipmentHandler) PriceRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	b, err := h.Service.PriceRoute(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toBreakdownResponse(b))
}
