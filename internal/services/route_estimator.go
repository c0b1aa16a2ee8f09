package services

import (
	"context"
	"errors"
	"fmt"
	"freight-tariff-service/internal/config"
	"freight-tariff-service/internal/domain"
	"freight-tariff-service/internal/platform/obs"
	"freight-tariff-service/internal/ports"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Distance lookups run at most this many at a time per request.
const distanceConcurrency = 4

type CandidateLeg struct {
	Ordinal        int
	Type           domain.LegType
	Origin         domain.Location
	Destination    domain.Location
	DistanceKm     decimal.Decimal
	BaseCost       decimal.Decimal
	EstimatedCost  decimal.Decimal
	EstimatedHours decimal.Decimal
}

// RouteCandidate is one tentative way to move a shipment. The leg estimates
// add up exactly to EstimatedCost.
type RouteCandidate struct {
	Index           int
	Description     string
	Legs            []CandidateLeg
	TotalDistanceKm decimal.Decimal
	CargoFactor     decimal.Decimal
	EstimatedCost   decimal.Decimal
	EstimatedHours  decimal.Decimal

	// Mean confirmed price over the eligible fleet; null when it could not be computed.
	FleetAverageCost decimal.NullDecimal
}

// RouteEstimator builds the tentative routes offered for a shipment:
// direct first, then through the default depot.
type RouteEstimator struct {
	distances ports.DistanceProvider
	tariffs   ports.TariffCatalog
	costs     *CostCalculator
	pricing   config.Pricing
	timeout   time.Duration
	log       *slog.Logger
}

func NewRouteEstimator(
	distances ports.DistanceProvider,
	tariffs ports.TariffCatalog,
	costs *CostCalculator,
	pricing config.Pricing,
	tariffTimeout time.Duration,
	log *slog.Logger,
) *RouteEstimator {
	if log == nil {
		log = slog.Default()
	}
	return &RouteEstimator{
		distances: distances,
		tariffs:   tariffs,
		costs:     costs,
		pricing:   pricing,
		timeout:   tariffTimeout,
		log:       log,
	}
}

type plannedLeg struct {
	legType     domain.LegType
	origin      domain.Location
	destination domain.Location
}

func (e *RouteEstimator) TentativeRoutes(ctx context.Context, s domain.Shipment) (_ []RouteCandidate, err error) {
	defer obs.Time(ctx, "estimator.TentativeRoutes")(&err)

	if err := s.Cargo.Validate(); err != nil {
		return nil, fmt.Errorf("tentative routes: shipment %s: %w", s.ID, err)
	}

	depot := e.pricing.DefaultDepot
	plans := []struct {
		description string
		legs        []plannedLeg
	}{
		{
			description: "direct",
			legs: []plannedLeg{
				{domain.LegOriginDestination, s.Origin, s.Destination},
			},
		},
		{
			description: "via " + depot.Address,
			legs: []plannedLeg{
				{domain.LegOriginDepot, s.Origin, depot},
				{domain.LegDepotDestination, depot, s.Destination},
			},
		},
	}

	distances := make([][]decimal.Decimal, len(plans))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(distanceConcurrency)
	for i, p := range plans {
		i := i
		distances[i] = make([]decimal.Decimal, len(p.legs))
		for j, l := range p.legs {
			j, l := j, l
			g.Go(func() error {
				km, err := e.distances.DistanceKm(gctx, l.origin.Coordinates, l.destination.Coordinates)
				if err != nil {
					return fmt.Errorf("distance %q -> %q: %w", l.origin.Address, l.destination.Address, err)
				}
				distances[i][j] = km
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("tentative routes: shipment %s: %w", s.ID, err)
	}

	fuelPerKm, err := e.fuelPerKm(ctx)
	if err != nil {
		return nil, fmt.Errorf("tentative routes: %w", err)
	}
	rates := make(map[domain.LegType]decimal.Decimal)
	for _, p := range plans {
		for _, l := range p.legs {
			if _, ok := rates[l.legType]; ok {
				continue
			}
			rate, err := e.perKmRate(ctx, l.legType)
			if err != nil {
				return nil, fmt.Errorf("tentative routes: %w", err)
			}
			rates[l.legType] = rate
		}
	}

	factor := e.cargoFactor(s.Cargo)
	candidates := make([]RouteCandidate, 0, len(plans))
	for i, p := range plans {
		c := RouteCandidate{
			Index:           i,
			Description:     p.description,
			CargoFactor:     factor,
			TotalDistanceKm: decimal.Zero,
			EstimatedHours:  decimal.Zero,
		}

		base := decimal.Zero
		for j, l := range p.legs {
			km := distances[i][j]
			leg := CandidateLeg{
				Ordinal:        j + 1,
				Type:           l.legType,
				Origin:         l.origin,
				Destination:    l.destination,
				DistanceKm:     km,
				BaseCost:       km.Mul(rates[l.legType].Add(fuelPerKm)),
				EstimatedHours: domain.Round2(km.Div(e.pricing.AverageSpeedKmh)).Add(e.pricing.LoadUnloadHours),
			}
			if l.legType.EndsAtDepot() {
				leg.BaseCost = leg.BaseCost.Add(e.pricing.DepotDwellCharge)
				leg.EstimatedHours = leg.EstimatedHours.Add(e.pricing.DepotDwellHours)
			}
			base = base.Add(leg.BaseCost)
			c.TotalDistanceKm = c.TotalDistanceKm.Add(km)
			c.EstimatedHours = c.EstimatedHours.Add(leg.EstimatedHours)
			c.Legs = append(c.Legs, leg)
		}

		c.EstimatedCost = domain.Round2(base.Mul(factor))
		spreadEstimate(c.Legs, c.EstimatedCost, factor)
		c.TotalDistanceKm = domain.Round2(c.TotalDistanceKm)
		c.EstimatedHours = domain.Round2(c.EstimatedHours)
		candidates = append(candidates, c)
	}

	e.annotateFleetAverage(ctx, s.Cargo, candidates)
	return candidates, nil
}

// spreadEstimate sets each leg's share of the candidate estimate. The last
// leg absorbs the rounding remainder so the legs sum to total.
func spreadEstimate(legs []CandidateLeg, total, factor decimal.Decimal) {
	assigned := decimal.Zero
	for i := range legs {
		if i == len(legs)-1 {
			legs[i].EstimatedCost = total.Sub(assigned)
			return
		}
		legs[i].EstimatedCost = domain.Round2(legs[i].BaseCost.Mul(factor))
		assigned = assigned.Add(legs[i].EstimatedCost)
	}
}

// cargoFactor scales the estimate with cargo size: 1 + weight/20000 +
// volume/50, each term rounded to 4 places, capped at MaxCargoFactor.
func (e *RouteEstimator) cargoFactor(c domain.Cargo) decimal.Decimal {
	f := decimal.NewFromInt(1).
		Add(c.WeightKg.DivRound(decimal.NewFromInt(20000), 4)).
		Add(c.VolumeM3.DivRound(decimal.NewFromInt(50), 4))
	return decimal.Min(f, e.pricing.MaxCargoFactor)
}

// perKmRate is the leg type's tariff rate, or the configured default when
// the catalog has none for the type.
func (e *RouteEstimator) perKmRate(ctx context.Context, legType domain.LegType) (decimal.Decimal, error) {
	ctx, cancel := withTimeout(ctx, e.timeout)
	defer cancel()

	t, err := e.tariffs.TariffForLegType(ctx, legType)
	if errors.Is(err, domain.ErrNotFound) {
		return e.pricing.DefaultPerKmRate, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("tariff for %s: %w", legType, upstream(err))
	}
	return t.PerKmRate, nil
}

func (e *RouteEstimator) fuelPerKm(ctx context.Context) (decimal.Decimal, error) {
	ctx, cancel := withTimeout(ctx, e.timeout)
	defer cancel()

	t, err := e.tariffs.ActiveTariff(ctx)
	if errors.Is(err, domain.ErrTariffUnavailable) {
		return e.pricing.DefaultFuelConsumption.Mul(e.pricing.DefaultFuelPrice), nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("active tariff: %w", upstream(err))
	}
	return t.FuelPerKm(), nil
}

// annotateFleetAverage fills FleetAverageCost where the fleet and tariff
// allow it. A failure leaves the field null and never drops a candidate.
func (e *RouteEstimator) annotateFleetAverage(ctx context.Context, cargo domain.Cargo, candidates []RouteCandidate) {
	if e.costs == nil {
		return
	}

	eligible, err := e.costs.EligibleVehicles(ctx, cargo)
	if err != nil {
		e.log.WarnContext(ctx, "fleet average skipped", "error", err)
		return
	}

	dwellDays := int(e.pricing.DepotDwellHours.Div(decimal.NewFromInt(24)).Ceil().IntPart())
	for i := range candidates {
		legs := make([]LegInput, 0, len(candidates[i].Legs))
		for _, l := range candidates[i].Legs {
			legs = append(legs, LegInput{Type: l.Type, DistanceKm: l.DistanceKm})
		}

		approx, err := e.costs.Approximate(ctx, cargo, legs, eligible, dwellDays)
		if err != nil {
			level := slog.LevelWarn
			if errors.Is(err, domain.ErrNoEligibleVehicles) || errors.Is(err, domain.ErrTariffUnavailable) {
				level = slog.LevelDebug
			}
			e.log.Log(ctx, level, "fleet average unavailable",
				"candidate", candidates[i].Description, "error", err)
			continue
		}
		candidates[i].FleetAverageCost = domain.Null(approx.Average)
	}
}
