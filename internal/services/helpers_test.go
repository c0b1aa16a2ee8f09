package services

import (
	"context"
	"errors"
	"freight-tariff-service/internal/adapters/distance"
	"freight-tariff-service/internal/adapters/fleet"
	"freight-tariff-service/internal/adapters/repositories"
	"freight-tariff-service/internal/adapters/tariffs"
	"freight-tariff-service/internal/config"
	"freight-tariff-service/internal/domain"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var (
	laPlata = domain.Location{Address: "La Plata", Coordinates: domain.Coordinates{Lat: -34.9205, Lon: -57.9536}}
	cordoba = domain.Location{Address: "Córdoba", Coordinates: domain.Coordinates{Lat: -31.4201, Lon: -64.1888}}
	depot   = config.DefaultPricing().DefaultDepot
)

// fixtureTariff is the reference tariff: flat 120/km, no bracket rates.
func fixtureTariff() domain.Tariff {
	return domain.Tariff{
		Description:          "reference",
		PerKmRate:            dec("120"),
		ManagementFee:        dec("1000"),
		ManagementFeePerLeg:  dec("250"),
		FuelConsumptionPerKm: dec("0.35"),
		FuelPricePerLiter:    dec("150"),
		DwellRatePerDay:      dec("500"),
		Tiers:                domain.DefaultTierSchedule(),
		Active:               true,
	}
}

func heavyCargo() domain.Cargo {
	return domain.Cargo{ClientID: "acme", WeightKg: dec("18000"), VolumeM3: dec("45")}
}

func vehicle(id int64, maxKg, maxM3, litersPerKm string) domain.Vehicle {
	return domain.Vehicle{
		ID:              id,
		MaxWeightKg:     dec(maxKg),
		MaxVolumeM3:     dec(maxM3),
		FuelLitersPerKm: dec(litersPerKm),
		Available:       true,
	}
}

// distancePairs covers both tentative candidates between laPlata and cordoba.
func distancePairs() []distance.MockPair {
	return []distance.MockPair{
		{From: laPlata.Coordinates, To: cordoba.Coordinates, Km: dec("700")},
		{From: laPlata.Coordinates, To: depot.Coordinates, Km: dec("60")},
		{From: depot.Coordinates, To: cordoba.Coordinates, Km: dec("650")},
	}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.TrackingEvent
}

func (n *recordingNotifier) Notify(ev domain.TrackingEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) states() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.State)
	}
	return out
}

func (n *recordingNotifier) count(state domain.ShipmentStatus) int {
	c := 0
	for _, s := range n.states() {
		if s == string(state) {
			c++
		}
	}
	return c
}

// downFleet is a fleet registry that cannot be reached.
type downFleet struct{}

var errFleetDown = errors.New("dial tcp 10.0.0.7:443: connection refused")

func (downFleet) Vehicle(context.Context, int64) (domain.Vehicle, error) {
	return domain.Vehicle{}, errFleetDown
}

func (downFleet) EligibleVehicles(context.Context, decimal.Decimal, decimal.Decimal) ([]domain.Vehicle, error) {
	return nil, errFleetDown
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// harness wires the services over in-memory adapters.
type harness struct {
	repo      *repositories.MemoryShipmentRepository
	catalog   *tariffs.StaticCatalog
	fleet     *fleet.StaticFleet
	distances *distance.MockDistanceProvider
	notifier  *recordingNotifier
	clock     *fakeClock
	costs     *CostCalculator
	estimator *RouteEstimator
	shipments *ShipmentService
	legs      *LegLifecycle
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		repo:    repositories.NewMemoryShipmentRepository(),
		catalog: tariffs.NewStaticCatalog(fixtureTariff()),
		fleet: fleet.NewStaticFleet(
			vehicle(1, "20000", "60", "0.35"),
			vehicle(2, "25000", "80", "0.40"),
			vehicle(3, "10000", "30", "0.30"),
			vehicle(4, "20000", "40", "0.30"),
		),
		distances: distance.NewMockDistanceProvider(distancePairs()),
		notifier:  &recordingNotifier{},
		clock:     &fakeClock{t: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)},
	}
	h.costs = NewCostCalculator(h.catalog, h.fleet, time.Second)
	h.estimator = NewRouteEstimator(h.distances, h.catalog, h.costs, config.DefaultPricing(), time.Second, nil)
	h.shipments = NewShipmentService(h.repo, h.estimator, h.costs, h.notifier).WithClock(h.clock.Now)
	h.legs = NewLegLifecycle(h.repo, h.fleet, h.costs, h.notifier, time.Second, nil).WithClock(h.clock.Now)
	return h
}

func (h *harness) createShipment(t *testing.T) domain.Shipment {
	t.Helper()
	s, err := h.shipments.Create(context.Background(), NewShipment{
		ClientID:    "acme",
		Origin:      laPlata,
		Destination: cordoba,
		WeightKg:    dec("18000"),
		VolumeM3:    dec("45"),
		Description: "steel coils",
	})
	require.NoError(t, err)
	return s
}

// viaDepotRoute creates a shipment and assigns the via-depot candidate with 2 dwell days.
func (h *harness) viaDepotRoute(t *testing.T) (domain.Shipment, domain.Route) {
	t.Helper()
	s := h.createShipment(t)
	r, err := h.shipments.AssignRoute(context.Background(), s.ID, 1, 2)
	require.NoError(t, err)
	require.Len(t, r.Legs, 2)
	return s, r
}
