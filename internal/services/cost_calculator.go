package services

import (
	"context"
	"errors"
	"fmt"
	"freight-tariff-service/internal/domain"
	"freight-tariff-service/internal/platform/obs"
	"freight-tariff-service/internal/ports"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LegInput is the part of a leg that pricing needs.
type LegInput struct {
	LegID      uuid.UUID
	Type       domain.LegType
	DistanceKm decimal.Decimal
	DwellDays  int
	VehicleID  *int64
}

// LegInputs converts stored legs for pricing.
func LegInputs(legs []domain.Leg) []LegInput {
	out := make([]LegInput, 0, len(legs))
	for _, l := range legs {
		out = append(out, LegInput{
			LegID:      l.ID,
			Type:       l.Type,
			DistanceKm: l.DistanceKm,
			DwellDays:  l.DwellDays,
			VehicleID:  l.VehicleID,
		})
	}
	return out
}

type LegCost struct {
	LegID        uuid.UUID
	Type         domain.LegType
	DistanceCost decimal.Decimal
	FuelCost     decimal.Decimal
	DwellCost    decimal.Decimal
	Total        decimal.Decimal
}

// CostBreakdown is a confirmed price with each component reported separately.
// The management fee is charged once per route, never per leg.
type CostBreakdown struct {
	TariffID      int64
	RatePerKm     decimal.Decimal
	ManagementFee decimal.Decimal
	DistanceCost  decimal.Decimal
	FuelCost      decimal.Decimal
	DwellCost     decimal.Decimal
	Total         decimal.Decimal
	Legs          []LegCost
}

type VehicleCost struct {
	VehicleID int64
	Total     decimal.Decimal
}

// Approximation is the mean confirmed price over the eligible vehicles.
type Approximation struct {
	Average  decimal.Decimal
	Vehicles []VehicleCost
}

// CostCalculator prices legs in confirmed mode (known vehicles) and in
// approximate mode (averaged over every vehicle able to carry the cargo).
// Both modes share one code path so a re-price after assignment only
// refines the estimate.
type CostCalculator struct {
	tariffs ports.TariffCatalog
	fleet   ports.FleetCapacityOracle
	timeout time.Duration
}

func NewCostCalculator(tariffs ports.TariffCatalog, fleet ports.FleetCapacityOracle, timeout time.Duration) *CostCalculator {
	return &CostCalculator{tariffs: tariffs, fleet: fleet, timeout: timeout}
}

// Confirmed prices the legs with the active tariff. Legs with a vehicle use
// its fuel consumption, which must be present in vehicles; legs without one
// use the tariff default.
func (c *CostCalculator) Confirmed(
	ctx context.Context,
	cargo domain.Cargo,
	legs []LegInput,
	vehicles map[int64]domain.Vehicle,
) (_ CostBreakdown, err error) {
	defer obs.Time(ctx, "costs.Confirmed")(&err)

	tariff, err := c.activeTariff(ctx)
	if err != nil {
		return CostBreakdown{}, fmt.Errorf("confirmed cost: %w", err)
	}

	b, err := price(tariff, cargo, legs, func(l LegInput) (decimal.Decimal, error) {
		if l.VehicleID == nil {
			return tariff.FuelConsumptionPerKm, nil
		}
		v, ok := vehicles[*l.VehicleID]
		if !ok {
			return decimal.Zero, domain.NewNotFound("vehicle", *l.VehicleID)
		}
		return v.FuelLitersPerKm, nil
	})
	if err != nil {
		return CostBreakdown{}, fmt.Errorf("confirmed cost: %w", err)
	}
	return b, nil
}

// ConfirmedForRoute prices a stored route, resolving assigned vehicles
// through the fleet registry.
func (c *CostCalculator) ConfirmedForRoute(ctx context.Context, route domain.Route, cargo domain.Cargo) (CostBreakdown, error) {
	b, err := c.ConfirmedWithFleet(ctx, cargo, LegInputs(route.Legs))
	if err != nil {
		return CostBreakdown{}, fmt.Errorf("route %s: %w", route.ID, err)
	}
	return b, nil
}

// ConfirmedWithFleet looks up every vehicle the legs reference, then prices them.
func (c *CostCalculator) ConfirmedWithFleet(ctx context.Context, cargo domain.Cargo, legs []LegInput) (CostBreakdown, error) {
	vehicles := make(map[int64]domain.Vehicle)
	for _, l := range legs {
		if l.VehicleID == nil {
			continue
		}
		if _, ok := vehicles[*l.VehicleID]; ok {
			continue
		}
		v, err := c.vehicle(ctx, *l.VehicleID)
		if err != nil {
			return CostBreakdown{}, fmt.Errorf("confirmed cost: %w", err)
		}
		vehicles[v.ID] = v
	}
	return c.Confirmed(ctx, cargo, legs, vehicles)
}

// Approximate runs the confirmed computation once per eligible vehicle, with
// every leg priced as if that vehicle drove it, and returns the mean.
// dwellDays applies to depot-ending legs that carry no dwell days of their own.
func (c *CostCalculator) Approximate(
	ctx context.Context,
	cargo domain.Cargo,
	legs []LegInput,
	eligible []domain.Vehicle,
	dwellDays int,
) (_ Approximation, err error) {
	defer obs.Time(ctx, "costs.Approximate")(&err)

	fitting := make([]domain.Vehicle, 0, len(eligible))
	for _, v := range eligible {
		if v.Fits(cargo) {
			fitting = append(fitting, v)
		}
	}
	if len(fitting) == 0 {
		return Approximation{}, fmt.Errorf("approximate cost: cargo %s kg / %s m3: %w",
			cargo.WeightKg, cargo.VolumeM3, domain.ErrNoEligibleVehicles)
	}

	tariff, err := c.activeTariff(ctx)
	if err != nil {
		return Approximation{}, fmt.Errorf("approximate cost: %w", err)
	}

	generic := make([]LegInput, len(legs))
	for i, l := range legs {
		if l.DwellDays == 0 && l.Type.EndsAtDepot() {
			l.DwellDays = dwellDays
		}
		l.VehicleID = nil
		generic[i] = l
	}

	out := Approximation{Vehicles: make([]VehicleCost, 0, len(fitting))}
	sum := decimal.Zero
	for _, v := range fitting {
		b, err := price(tariff, cargo, generic, func(LegInput) (decimal.Decimal, error) {
			return v.FuelLitersPerKm, nil
		})
		if err != nil {
			return Approximation{}, fmt.Errorf("approximate cost: vehicle %d: %w", v.ID, err)
		}
		sum = sum.Add(b.Total)
		out.Vehicles = append(out.Vehicles, VehicleCost{VehicleID: v.ID, Total: b.Total})
	}

	sort.Slice(out.Vehicles, func(i, j int) bool { return out.Vehicles[i].VehicleID < out.Vehicles[j].VehicleID })
	out.Average = sum.DivRound(decimal.NewFromInt(int64(len(fitting))), 2)
	return out, nil
}

// ApproximateFromFleet asks the fleet registry for the eligible vehicles first.
func (c *CostCalculator) ApproximateFromFleet(
	ctx context.Context,
	cargo domain.Cargo,
	legs []LegInput,
	dwellDays int,
) (Approximation, error) {
	eligible, err := c.EligibleVehicles(ctx, cargo)
	if err != nil {
		return Approximation{}, fmt.Errorf("approximate cost: %w", err)
	}
	return c.Approximate(ctx, cargo, legs, eligible, dwellDays)
}

func (c *CostCalculator) EligibleVehicles(ctx context.Context, cargo domain.Cargo) ([]domain.Vehicle, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	vs, err := c.fleet.EligibleVehicles(ctx, cargo.WeightKg, cargo.VolumeM3)
	if err != nil {
		return nil, fmt.Errorf("eligible vehicles: %w", upstream(err))
	}
	return vs, nil
}

func (c *CostCalculator) vehicle(ctx context.Context, id int64) (domain.Vehicle, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	v, err := c.fleet.Vehicle(ctx, id)
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("vehicle %d: %w", id, upstream(err))
	}
	return v, nil
}

func (c *CostCalculator) activeTariff(ctx context.Context) (domain.Tariff, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	t, err := c.tariffs.ActiveTariff(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrTariffUnavailable) {
			return domain.Tariff{}, err
		}
		return domain.Tariff{}, fmt.Errorf("active tariff: %w: %w", domain.ErrTariffUnavailable, err)
	}
	return t, nil
}

// price is the shared confirmed-mode computation. consumption returns the
// liters per km used for a leg's fuel cost.
func price(
	t domain.Tariff,
	cargo domain.Cargo,
	legs []LegInput,
	consumption func(LegInput) (decimal.Decimal, error),
) (CostBreakdown, error) {
	if len(legs) == 0 {
		return CostBreakdown{}, fmt.Errorf("%w: no legs to price", domain.ErrValidation)
	}

	rate := t.RatePerKm(cargo)
	b := CostBreakdown{
		TariffID:      t.ID,
		RatePerKm:     rate,
		ManagementFee: t.ManagementCharge(len(legs)),
		DistanceCost:  decimal.Zero,
		FuelCost:      decimal.Zero,
		DwellCost:     decimal.Zero,
		Legs:          make([]LegCost, 0, len(legs)),
	}

	for _, l := range legs {
		if l.DistanceKm.IsNegative() {
			return CostBreakdown{}, fmt.Errorf("%w: leg %s has negative distance %s", domain.ErrValidation, l.LegID, l.DistanceKm)
		}
		litersPerKm, err := consumption(l)
		if err != nil {
			return CostBreakdown{}, err
		}

		lc := LegCost{
			LegID:        l.LegID,
			Type:         l.Type,
			DistanceCost: domain.Round2(l.DistanceKm.Mul(rate)),
			FuelCost:     domain.Round2(l.DistanceKm.Mul(litersPerKm).Mul(t.FuelPricePerLiter)),
			DwellCost:    decimal.Zero,
		}
		if l.Type.EndsAtDepot() && l.DwellDays > 0 {
			lc.DwellCost = domain.Round2(t.DwellRatePerDay.Mul(decimal.NewFromInt(int64(l.DwellDays))))
		}
		lc.Total = lc.DistanceCost.Add(lc.FuelCost).Add(lc.DwellCost)

		b.DistanceCost = b.DistanceCost.Add(lc.DistanceCost)
		b.FuelCost = b.FuelCost.Add(lc.FuelCost)
		b.DwellCost = b.DwellCost.Add(lc.DwellCost)
		b.Legs = append(b.Legs, lc)
	}

	b.Total = domain.Round2(b.ManagementFee.Add(b.DistanceCost).Add(b.FuelCost).Add(b.DwellCost))
	return b, nil
}

// upstream classifies a collaborator failure. Not-found and already
// classified errors pass through; anything else is an unreachable upstream.
func upstream(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrUpstreamUnavailable),
		errors.Is(err, domain.ErrValidation):
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
