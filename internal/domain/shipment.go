package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ShipmentStatus string

const (
	ShipmentPending       ShipmentStatus = "pending"
	ShipmentRouteAssigned ShipmentStatus = "route_assigned"
	ShipmentInTransit     ShipmentStatus = "in_transit"
	ShipmentCompleted     ShipmentStatus = "completed"
	ShipmentCancelled     ShipmentStatus = "cancelled"
)

// Terminal statuses accept no further transitions.
func (s ShipmentStatus) Terminal() bool {
	return s == ShipmentCompleted || s == ShipmentCancelled
}

// Shipment is a client's request to move one cargo between two locations.
// Shipments are never deleted; cancellation is a status.
type Shipment struct {
	ID             uuid.UUID
	Number         string
	ClientID       string
	Origin         Location
	Destination    Location
	Cargo          Cargo
	Status         ShipmentStatus
	EstimatedCost  decimal.NullDecimal
	ConfirmedCost  decimal.NullDecimal
	SettledCost    decimal.NullDecimal
	EstimatedHours decimal.NullDecimal
	RealHours      decimal.NullDecimal
	RequestedAt    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

func (s *Shipment) statusError(required ShipmentStatus) error {
	return fmt.Errorf("%w: shipment %s is %q, required %q", ErrInvalidTransition, s.ID, s.Status, required)
}

// AssignRoute records the estimate of the chosen route.
func (s *Shipment) AssignRoute(r Route, at time.Time) error {
	if s.Status != ShipmentPending {
		return s.statusError(ShipmentPending)
	}
	s.EstimatedCost = Null(r.EstimatedCost)
	s.EstimatedHours = Null(r.EstimatedHours)
	s.Status = ShipmentRouteAssigned
	s.UpdatedAt = at
	return nil
}

// MarkInTransit moves a shipment with an assigned route into transit.
// It reports false when the shipment was not waiting to depart.
func (s *Shipment) MarkInTransit(at time.Time) bool {
	if s.Status != ShipmentRouteAssigned {
		return false
	}
	s.Status = ShipmentInTransit
	s.UpdatedAt = at
	return true
}

// Complete settles the shipment once its route has finished. It reports
// false without changes when the shipment already completed.
func (s *Shipment) Complete(at time.Time) (bool, error) {
	switch s.Status {
	case ShipmentCompleted:
		return false, nil
	case ShipmentCancelled:
		return false, fmt.Errorf("%w: shipment %s is cancelled", ErrInvalidTransition, s.ID)
	}

	s.RealHours = Null(ElapsedHours(s.RequestedAt, at))
	if !s.SettledCost.Valid {
		if s.ConfirmedCost.Valid {
			s.SettledCost = s.ConfirmedCost
		} else {
			s.SettledCost = s.EstimatedCost
		}
	}
	s.Status = ShipmentCompleted
	s.CompletedAt = &at
	s.UpdatedAt = at
	return true, nil
}

func (s *Shipment) Cancel(at time.Time) error {
	if s.Status.Terminal() {
		return fmt.Errorf("%w: shipment %s is already %s", ErrInvalidTransition, s.ID, s.Status)
	}
	s.Status = ShipmentCancelled
	s.UpdatedAt = at
	return nil
}

// ElapsedHours is the whole minutes between from and to, in hours, rounded to 2 places.
func ElapsedHours(from, to time.Time) decimal.Decimal {
	minutes := int64(to.Sub(from) / time.Minute)
	return decimal.NewFromInt(minutes).DivRound(decimal.NewFromInt(60), 2)
}

// NewShipmentNumber formats the human-readable shipment number.
func NewShipmentNumber(at time.Time, id uuid.UUID) string {
	return fmt.Sprintf("SHP-%s-%s", at.UTC().Format("20060102150405"), id.String()[:4])
}
