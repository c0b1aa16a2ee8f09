package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Route is the ordered sequence of legs selected for one shipment.
// The aggregate fields are derived from the legs by Recompute and are
// never edited on their own.
type Route struct {
	ID              uuid.UUID
	ShipmentID      uuid.UUID
	Description     string
	Legs            []Leg
	TotalLegs       int
	TotalDepots     int
	TotalDistanceKm decimal.Decimal
	EstimatedCost   decimal.Decimal
	EstimatedHours  decimal.Decimal
	ConfirmedCost   decimal.NullDecimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Recompute derives the route aggregates from its legs.
func (r *Route) Recompute() {
	r.TotalLegs = len(r.Legs)
	r.TotalDepots = 0
	r.TotalDistanceKm = decimal.Zero
	r.EstimatedCost = decimal.Zero
	r.EstimatedHours = decimal.Zero

	for _, l := range r.Legs {
		if l.Type.EndsAtDepot() {
			r.TotalDepots++
		}
		r.TotalDistanceKm = r.TotalDistanceKm.Add(l.DistanceKm)
		r.EstimatedCost = r.EstimatedCost.Add(l.EstimatedCost)
		r.EstimatedHours = r.EstimatedHours.Add(l.EstimatedHours)
	}

	r.TotalDistanceKm = Round2(r.TotalDistanceKm)
	r.EstimatedCost = Round2(r.EstimatedCost)
	r.EstimatedHours = Round2(r.EstimatedHours)
}

// Finished reports whether every leg of the route has finished.
// A route without legs is never finished.
func (r *Route) Finished() bool {
	return AllFinished(r.Legs)
}

func AllFinished(legs []Leg) bool {
	if len(legs) == 0 {
		return false
	}
	for _, l := range legs {
		if l.State != LegFinished {
			return false
		}
	}
	return true
}
