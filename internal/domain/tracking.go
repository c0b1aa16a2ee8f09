package domain

import (
	"time"

	"github.com/google/uuid"
)

// TrackingEvent is one entry of a shipment's status history.
// It is emitted after the state change commits and never blocks it.
type TrackingEvent struct {
	ShipmentID  uuid.UUID  `json:"shipment_id"`
	CargoID     uuid.UUID  `json:"cargo_id"`
	LegID       *uuid.UUID `json:"leg_id,omitempty"`
	State       string     `json:"state"`
	Location    string     `json:"location"`
	Description string     `json:"description"`
	OccurredAt  time.Time  `json:"occurred_at"`
}
