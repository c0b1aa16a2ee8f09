package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type QuoteLeg struct {
	Type       string          `json:"type"`
	DistanceKm decimal.Decimal `json:"distance_km"`
	DwellDays  int             `json:"dwell_days"`
	VehicleID  *int64          `json:"vehicle_id,omitempty"`
}

type QuoteRequest struct {
	Cargo Cargo      `json:"cargo"`
	Legs  []QuoteLeg `json:"legs"`

	// Approximate quotes only: dwell days for depot-ending legs without their own.
	DwellDays int `json:"dwell_days"`
}

type LegCostResponse struct {
	LegID        *uuid.UUID      `json:"leg_id,omitempty"`
	Type         string          `json:"type"`
	DistanceCost decimal.Decimal `json:"distance_cost"`
	FuelCost     decimal.Decimal `json:"fuel_cost"`
	DwellCost    decimal.Decimal `json:"dwell_cost"`
	Total        decimal.Decimal `json:"total"`
}

type CostBreakdownResponse struct {
	TariffID      int64             `json:"tariff_id"`
	RatePerKm     decimal.Decimal   `json:"rate_per_km"`
	ManagementFee decimal.Decimal   `json:"management_fee"`
	DistanceCost  decimal.Decimal   `json:"distance_cost"`
	FuelCost      decimal.Decimal   `json:"fuel_cost"`
	DwellCost     decimal.Decimal   `json:"dwell_cost"`
	Total         decimal.Decimal   `json:"total"`
	Legs          []LegCostResponse `json:"legs"`
}

type VehicleCostResponse struct {
	VehicleID int64           `json:"vehicle_id"`
	Total     decimal.Decimal `json:"total"`
}

type ApproximationResponse struct {
	Average  decimal.Decimal       `json:"average"`
	Vehicles []VehicleCostResponse `json:"vehicles"`
}
