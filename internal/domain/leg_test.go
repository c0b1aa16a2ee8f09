package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegTypeEndsAtDepot(t *testing.T) {
	assert.False(t, LegOriginDestination.EndsAtDepot())
	assert.True(t, LegOriginDepot.EndsAtDepot())
	assert.True(t, LegDepotDepot.EndsAtDepot())
	assert.False(t, LegDepotDestination.EndsAtDepot())
}

func TestParseLegType(t *testing.T) {
	lt, err := ParseLegType("depot_depot")
	require.NoError(t, err)
	assert.Equal(t, LegDepotDepot, lt)

	_, err = ParseLegType("teleport")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLegLifecycleForward(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	l := Leg{ID: uuid.New(), State: LegEstimated}

	require.NoError(t, l.Assign(42, "carrier-1", now))
	assert.Equal(t, LegAssigned, l.State)
	require.NotNil(t, l.VehicleID)
	assert.Equal(t, int64(42), *l.VehicleID)
	assert.Equal(t, "carrier-1", l.CarrierID)

	require.NoError(t, l.Start(now.Add(time.Hour)))
	assert.Equal(t, LegStarted, l.State)
	require.NotNil(t, l.StartedAt)

	require.NoError(t, l.Finish(now.Add(3*time.Hour)))
	assert.Equal(t, LegFinished, l.State)
	require.NotNil(t, l.FinishedAt)
	assert.Equal(t, now.Add(3*time.Hour), *l.FinishedAt)
}

func TestLegRejectsOutOfOrderTransitions(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		state    LegState
		op       func(*Leg) error
		required LegState
	}{
		{"start before assign", LegEstimated, func(l *Leg) error { return l.Start(now) }, LegAssigned},
		{"finish before start", LegAssigned, func(l *Leg) error { return l.Finish(now) }, LegStarted},
		{"assign twice", LegAssigned, func(l *Leg) error { return l.Assign(1, "c", now) }, LegEstimated},
		{"finish twice", LegFinished, func(l *Leg) error { return l.Finish(now) }, LegStarted},
		{"restart finished", LegFinished, func(l *Leg) error { return l.Start(now) }, LegAssigned},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := Leg{ID: uuid.New(), State: tc.state}
			err := tc.op(&l)

			require.ErrorIs(t, err, ErrInvalidTransition)
			var te *TransitionError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tc.state, te.Current)
			assert.Equal(t, tc.required, te.Required)
			assert.Equal(t, tc.state, l.State, "state must not change")
		})
	}
}

func TestRouteRecompute(t *testing.T) {
	r := Route{Legs: []Leg{
		{Type: LegOriginDepot, DistanceKm: dec("120.50"), EstimatedCost: dec("1000.10"), EstimatedHours: dec("28.01")},
		{Type: LegDepotDepot, DistanceKm: dec("80"), EstimatedCost: dec("500"), EstimatedHours: dec("27.33")},
		{Type: LegDepotDestination, DistanceKm: dec("10.25"), EstimatedCost: dec("99.90"), EstimatedHours: dec("2.17")},
	}}

	r.Recompute()

	assert.Equal(t, 3, r.TotalLegs)
	assert.Equal(t, 2, r.TotalDepots)
	assert.True(t, r.TotalDistanceKm.Equal(dec("210.75")))
	assert.True(t, r.EstimatedCost.Equal(dec("1600")))
	assert.True(t, r.EstimatedHours.Equal(dec("57.51")))
}

func TestAllFinished(t *testing.T) {
	assert.False(t, AllFinished(nil))
	assert.False(t, AllFinished([]Leg{{State: LegFinished}, {State: LegStarted}}))
	assert.True(t, AllFinished([]Leg{{State: LegFinished}, {State: LegFinished}}))
}
