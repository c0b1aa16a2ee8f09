package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AssignRouteRequest struct {
	CandidateIndex int `json:"candidate_index"`
	DwellDays      int `json:"dwell_days"`
}

type LegResponse struct {
	ID             uuid.UUID           `json:"id"`
	RouteID        uuid.UUID           `json:"route_id"`
	Ordinal        int                 `json:"ordinal"`
	Type           string              `json:"type"`
	State          string              `json:"state"`
	Origin         Location            `json:"origin"`
	Destination    Location            `json:"destination"`
	DistanceKm     decimal.Decimal     `json:"distance_km"`
	EstimatedCost  decimal.Decimal     `json:"estimated_cost"`
	EstimatedHours decimal.Decimal     `json:"estimated_hours"`
	RealCost       decimal.NullDecimal `json:"real_cost"`
	DwellDays      int                 `json:"dwell_days"`
	VehicleID      *int64              `json:"vehicle_id"`
	CarrierID      string              `json:"carrier_id,omitempty"`
	StartedAt      *time.Time          `json:"started_at"`
	FinishedAt     *time.Time          `json:"finished_at"`
}

type RouteResponse struct {
	ID              uuid.UUID           `json:"id"`
	ShipmentID      uuid.UUID           `json:"shipment_id"`
	Description     string              `json:"description"`
	TotalLegs       int                 `json:"total_legs"`
	TotalDepots     int                 `json:"total_depots"`
	TotalDistanceKm decimal.Decimal     `json:"total_distance_km"`
	EstimatedCost   decimal.Decimal     `json:"estimated_cost"`
	EstimatedHours  decimal.Decimal     `json:"estimated_hours"`
	ConfirmedCost   decimal.NullDecimal `json:"confirmed_cost"`
	Legs            []LegResponse       `json:"legs"`
}

type CandidateLegResponse struct {
	Ordinal        int             `json:"ordinal"`
	Type           string          `json:"type"`
	Origin         Location        `json:"origin"`
	Destination    Location        `json:"destination"`
	DistanceKm     decimal.Decimal `json:"distance_km"`
	EstimatedCost  decimal.Decimal `json:"estimated_cost"`
	EstimatedHours decimal.Decimal `json:"estimated_hours"`
}

type CandidateResponse struct {
	Index            int                    `json:"index"`
	Description      string                 `json:"description"`
	CargoFactor      decimal.Decimal        `json:"cargo_factor"`
	TotalDistanceKm  decimal.Decimal        `json:"total_distance_km"`
	EstimatedCost    decimal.Decimal        `json:"estimated_cost"`
	EstimatedHours   decimal.Decimal        `json:"estimated_hours"`
	FleetAverageCost decimal.NullDecimal    `json:"fleet_average_cost"`
	Legs             []CandidateLegResponse `json:"legs"`
}

type ListCandidatesResponse struct {
	Candidates []CandidateResponse `json:"candidates"`
}

type AssignLegRequest struct {
	VehicleID int64  `json:"vehicle_id"`
	CarrierID string `json:"carrier_id"`
}
