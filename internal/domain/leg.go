package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LegType is the closed set of segment kinds a route is built from.
type LegType string

const (
	LegOriginDestination LegType = "origin_destination"
	LegOriginDepot       LegType = "origin_depot"
	LegDepotDepot        LegType = "depot_depot"
	LegDepotDestination  LegType = "depot_destination"
)

func (t LegType) Valid() bool {
	switch t {
	case LegOriginDestination, LegOriginDepot, LegDepotDepot, LegDepotDestination:
		return true
	}
	return false
}

// EndsAtDepot is true for the leg types that leave cargo dwelling at a depot.
// depot_destination ends with the final unload and is not one of them.
func (t LegType) EndsAtDepot() bool {
	return t == LegOriginDepot || t == LegDepotDepot
}

func ParseLegType(s string) (LegType, error) {
	t := LegType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown leg type %q", ErrValidation, s)
	}
	return t, nil
}

// LegState moves strictly forward: estimated -> assigned -> started -> finished.
type LegState string

const (
	LegEstimated LegState = "estimated"
	LegAssigned  LegState = "assigned"
	LegStarted   LegState = "started"
	LegFinished  LegState = "finished"
)

// Leg is one directed segment of a route. RouteID is a lookup link only;
// the route owns its legs.
type Leg struct {
	ID             uuid.UUID
	RouteID        uuid.UUID
	Ordinal        int
	Type           LegType
	Origin         Location
	Destination    Location
	DistanceKm     decimal.Decimal
	EstimatedCost  decimal.Decimal
	EstimatedHours decimal.Decimal
	RealCost       decimal.NullDecimal
	DwellDays      int
	VehicleID      *int64
	CarrierID      string
	State          LegState
	StartedAt      *time.Time
	FinishedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (l *Leg) require(state LegState) error {
	if l.State != state {
		return &TransitionError{LegID: l.ID.String(), Current: l.State, Required: state}
	}
	return nil
}

// CanAssign reports whether the leg is still waiting for a vehicle.
func (l *Leg) CanAssign() error { return l.require(LegEstimated) }

// Assign records the vehicle and carrier. Capacity is validated by the caller.
func (l *Leg) Assign(vehicleID int64, carrierID string, at time.Time) error {
	if err := l.require(LegEstimated); err != nil {
		return err
	}
	id := vehicleID
	l.VehicleID = &id
	l.CarrierID = carrierID
	l.State = LegAssigned
	l.UpdatedAt = at
	return nil
}

func (l *Leg) Start(at time.Time) error {
	if err := l.require(LegAssigned); err != nil {
		return err
	}
	l.StartedAt = &at
	l.State = LegStarted
	l.UpdatedAt = at
	return nil
}

func (l *Leg) Finish(at time.Time) error {
	if err := l.require(LegStarted); err != nil {
		return err
	}
	l.FinishedAt = &at
	l.State = LegFinished
	l.UpdatedAt = at
	return nil
}
