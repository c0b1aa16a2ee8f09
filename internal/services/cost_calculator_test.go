package services

import (
	"context"
	"errors"
	"freight-tariff-service/internal/adapters/fleet"
	"freight-tariff-service/internal/adapters/tariffs"
	"freight-tariff-service/internal/domain"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCalculator(ts ...domain.Tariff) *CostCalculator {
	return NewCostCalculator(tariffs.NewStaticCatalog(ts...), fleet.NewStaticFleet(), time.Second)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func TestConfirmedSingleLegReferenceFixture(t *testing.T) {
	calc := newCalculator(fixtureTariff())
	legs := []LegInput{{LegID: uuid.New(), Type: domain.LegOriginDestination, DistanceKm: dec("100")}}

	b, err := calc.Confirmed(context.Background(), heavyCargo(), legs, nil)
	require.NoError(t, err)

	require.Len(t, b.Legs, 1)
	assertDec(t, "120", b.RatePerKm)
	assertDec(t, "12000", b.Legs[0].DistanceCost)
	assertDec(t, "5250", b.Legs[0].FuelCost)
	assertDec(t, "0", b.Legs[0].DwellCost)
	assertDec(t, "17250", b.Legs[0].Total)
	assertDec(t, "1250", b.ManagementFee)
	assertDec(t, "18500", b.Total)
}

func TestConfirmedTierRates(t *testing.T) {
	tests := []struct {
		name  string
		tiers func(*domain.TierSchedule)
		rate  string
		total string
	}{
		{
			name: "heavy weight beats medium volume",
			tiers: func(s *domain.TierSchedule) {
				s.HeavyRate = domain.Null(dec("140"))
				s.MediumVolumeRate = domain.Null(dec("110"))
			},
			rate:  "140",
			total: "20500", // 14000 + 5250 + 1250
		},
		{
			name: "medium volume beats unset weight brackets",
			tiers: func(s *domain.TierSchedule) {
				s.LightRate = domain.Null(dec("90"))
				s.MediumVolumeRate = domain.Null(dec("130"))
			},
			rate:  "130",
			total: "19500",
		},
		{
			name: "no bracket matches falls back to flat rate",
			tiers: func(s *domain.TierSchedule) {
				s.LightRate = domain.Null(dec("90"))
				s.SmallRate = domain.Null(dec("80"))
			},
			rate:  "120",
			total: "18500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tariff := fixtureTariff()
			tt.tiers(&tariff.Tiers)
			calc := newCalculator(tariff)

			b, err := calc.Confirmed(context.Background(), heavyCargo(),
				[]LegInput{{Type: domain.LegOriginDestination, DistanceKm: dec("100")}}, nil)
			require.NoError(t, err)
			assertDec(t, tt.rate, b.RatePerKm)
			assertDec(t, tt.total, b.Total)
		})
	}
}

func TestConfirmedDwellOnlyOnDepotEndingLegs(t *testing.T) {
	calc := newCalculator(fixtureTariff())
	legs := []LegInput{
		{Type: domain.LegOriginDepot, DistanceKm: dec("60"), DwellDays: 2},
		{Type: domain.LegDepotDestination, DistanceKm: dec("650"), DwellDays: 2},
	}

	b, err := calc.Confirmed(context.Background(), heavyCargo(), legs, nil)
	require.NoError(t, err)

	assertDec(t, "1000", b.Legs[0].DwellCost)
	assertDec(t, "0", b.Legs[1].DwellCost)
	assertDec(t, "1000", b.DwellCost)
	assertDec(t, "1500", b.ManagementFee, "fee charged once for the route")
	// 1500 + 7200 + 78000 + 3150 + 34125 + 1000
	assertDec(t, "124975", b.Total)
}

func TestConfirmedUsesAssignedVehicleConsumption(t *testing.T) {
	calc := newCalculator(fixtureTariff())
	id := int64(7)
	legs := []LegInput{{Type: domain.LegOriginDestination, DistanceKm: dec("100"), VehicleID: &id}}
	vehicles := map[int64]domain.Vehicle{7: vehicle(7, "20000", "60", "0.40")}

	b, err := calc.Confirmed(context.Background(), heavyCargo(), legs, vehicles)
	require.NoError(t, err)
	assertDec(t, "6000", b.FuelCost)
	assertDec(t, "19250", b.Total)

	_, err = calc.Confirmed(context.Background(), heavyCargo(), legs, nil)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfirmedRoundsHalfUpPerComponent(t *testing.T) {
	tariff := fixtureTariff()
	tariff.PerKmRate = dec("120.15")
	calc := newCalculator(tariff)

	b, err := calc.Confirmed(context.Background(), heavyCargo(),
		[]LegInput{{Type: domain.LegOriginDestination, DistanceKm: dec("10.01")}}, nil)
	require.NoError(t, err)

	assertDec(t, "1202.70", b.DistanceCost) // 1202.7015
	assertDec(t, "525.53", b.FuelCost)      // 525.525
	assertDec(t, "2978.23", b.Total)
}

func TestConfirmedRequiresActiveTariff(t *testing.T) {
	inactive := fixtureTariff()
	inactive.Active = false
	calc := newCalculator(inactive)

	_, err := calc.Confirmed(context.Background(), heavyCargo(),
		[]LegInput{{Type: domain.LegOriginDestination, DistanceKm: dec("100")}}, nil)
	require.ErrorIs(t, err, domain.ErrTariffUnavailable)
}

func TestConfirmedRejectsEmptyOrNegativeLegs(t *testing.T) {
	calc := newCalculator(fixtureTariff())

	_, err := calc.Confirmed(context.Background(), heavyCargo(), nil, nil)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = calc.Confirmed(context.Background(), heavyCargo(),
		[]LegInput{{Type: domain.LegOriginDestination, DistanceKm: dec("-1")}}, nil)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestConfirmedMonotonicInDistance(t *testing.T) {
	tariff := fixtureTariff()
	tariff.Tiers.HeavyRate = domain.Null(dec("133.33"))
	calc := newCalculator(tariff)

	prev := decimal.Zero
	for km := dec("0"); km.LessThanOrEqual(dec("2000")); km = km.Add(dec("37.37")) {
		b, err := calc.Confirmed(context.Background(), heavyCargo(),
			[]LegInput{{Type: domain.LegOriginDestination, DistanceKm: km}}, nil)
		require.NoError(t, err)
		require.True(t, b.Total.GreaterThanOrEqual(prev), "cost decreased at %s km", km)
		prev = b.Total
	}
}

func TestApproximateIsMeanOfConfirmed(t *testing.T) {
	calc := newCalculator(fixtureTariff())
	ctx := context.Background()
	cargo := heavyCargo()

	a := vehicle(1, "20000", "60", "0.30")
	b := vehicle(2, "25000", "80", "0.333")
	legs := []LegInput{{Type: domain.LegOriginDestination, DistanceKm: dec("33.33")}}

	approx, err := calc.Approximate(ctx, cargo, legs, []domain.Vehicle{b, a}, 0)
	require.NoError(t, err)

	confirmed := func(v domain.Vehicle) decimal.Decimal {
		id := v.ID
		withVehicle := []LegInput{{Type: legs[0].Type, DistanceKm: legs[0].DistanceKm, VehicleID: &id}}
		cb, err := calc.Confirmed(ctx, cargo, withVehicle, map[int64]domain.Vehicle{id: v})
		require.NoError(t, err)
		return cb.Total
	}

	want := confirmed(a).Add(confirmed(b)).DivRound(decimal.NewFromInt(2), 2)
	assertDec(t, want.String(), approx.Average)
	// a: 1250 + 3999.60 + 1499.85 = 6749.45; b: 1250 + 3999.60 + 1664.83 = 6914.43
	assertDec(t, "6831.94", approx.Average)

	require.Len(t, approx.Vehicles, 2)
	assert.Equal(t, int64(1), approx.Vehicles[0].VehicleID)
	assertDec(t, "6749.45", approx.Vehicles[0].Total)
}

func TestApproximateRequiresEligibleVehicles(t *testing.T) {
	calc := newCalculator(fixtureTariff())
	legs := []LegInput{{Type: domain.LegOriginDestination, DistanceKm: dec("100")}}

	_, err := calc.Approximate(context.Background(), heavyCargo(), legs, nil, 0)
	require.ErrorIs(t, err, domain.ErrNoEligibleVehicles)

	tooSmall := []domain.Vehicle{vehicle(3, "10000", "30", "0.30"), vehicle(4, "20000", "40", "0.30")}
	_, err = calc.Approximate(context.Background(), heavyCargo(), legs, tooSmall, 0)
	require.ErrorIs(t, err, domain.ErrNoEligibleVehicles)
}

func TestApproximateAppliesDefaultDwellDays(t *testing.T) {
	calc := newCalculator(fixtureTariff())
	legs := []LegInput{
		{Type: domain.LegOriginDepot, DistanceKm: dec("60")},
		{Type: domain.LegDepotDepot, DistanceKm: dec("10"), DwellDays: 3},
		{Type: domain.LegDepotDestination, DistanceKm: dec("650")},
	}

	approx, err := calc.Approximate(context.Background(), heavyCargo(), legs,
		[]domain.Vehicle{vehicle(1, "20000", "60", "0.35")}, 1)
	require.NoError(t, err)

	// dwell: 1 day on the first leg, 3 of its own on the second, none on the last.
	// 1750 + 120*720 + 0.35*150*720 + 500 + 1500
	assertDec(t, "127950", approx.Average)
}

func TestApproximateFromFleet(t *testing.T) {
	fl := fleet.NewStaticFleet(
		vehicle(1, "20000", "60", "0.30"),
		vehicle(2, "25000", "80", "0.40"),
		vehicle(3, "10000", "30", "0.10"),
	)
	calc := NewCostCalculator(tariffs.NewStaticCatalog(fixtureTariff()), fl, time.Second)
	legs := []LegInput{{Type: domain.LegOriginDestination, DistanceKm: dec("100")}}

	approx, err := calc.ApproximateFromFleet(context.Background(), heavyCargo(), legs, 0)
	require.NoError(t, err)
	require.Len(t, approx.Vehicles, 2)
	// (17750 + 19250) / 2
	assertDec(t, "18500", approx.Average)

	down := NewCostCalculator(tariffs.NewStaticCatalog(fixtureTariff()), downFleet{}, time.Second)
	_, err = down.ApproximateFromFleet(context.Background(), heavyCargo(), legs, 0)
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.True(t, errors.Is(err, errFleetDown))
}

func TestConfirmedForRouteResolvesVehicles(t *testing.T) {
	fl := fleet.NewStaticFleet(vehicle(2, "25000", "80", "0.40"))
	calc := NewCostCalculator(tariffs.NewStaticCatalog(fixtureTariff()), fl, time.Second)

	v := int64(2)
	route := domain.Route{
		ID: uuid.New(),
		Legs: []domain.Leg{
			{ID: uuid.New(), Type: domain.LegOriginDepot, DistanceKm: dec("60"), DwellDays: 2},
			{ID: uuid.New(), Type: domain.LegDepotDestination, DistanceKm: dec("650"), VehicleID: &v},
		},
	}

	b, err := calc.ConfirmedForRoute(context.Background(), route, heavyCargo())
	require.NoError(t, err)
	assertDec(t, "129850", b.Total)
	assert.Equal(t, route.Legs[1].ID, b.Legs[1].LegID)

	down := NewCostCalculator(tariffs.NewStaticCatalog(fixtureTariff()), downFleet{}, time.Second)
	_, err = down.ConfirmedForRoute(context.Background(), route, heavyCargo())
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}
