package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Location struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

type Cargo struct {
	ID          *uuid.UUID      `json:"id,omitempty"`
	WeightKg    decimal.Decimal `json:"weight_kg"`
	VolumeM3    decimal.Decimal `json:"volume_m3"`
	Description string          `json:"description"`
}

type CreateShipmentRequest struct {
	ClientID    string   `json:"client_id"`
	Origin      Location `json:"origin"`
	Destination Location `json:"destination"`
	Cargo       Cargo    `json:"cargo"`
}

type ShipmentResponse struct {
	ID             uuid.UUID           `json:"id"`
	Number         string              `json:"number"`
	ClientID       string              `json:"client_id"`
	Status         string              `json:"status"`
	Origin         Location            `json:"origin"`
	Destination    Location            `json:"destination"`
	Cargo          Cargo               `json:"cargo"`
	EstimatedCost  decimal.NullDecimal `json:"estimated_cost"`
	ConfirmedCost  decimal.NullDecimal `json:"confirmed_cost"`
	SettledCost    decimal.NullDecimal `json:"settled_cost"`
	EstimatedHours decimal.NullDecimal `json:"estimated_hours"`
	RealHours      decimal.NullDecimal `json:"real_hours"`
	RequestedAt    time.Time           `json:"requested_at"`
	CompletedAt    *time.Time          `json:"completed_at"`
}
