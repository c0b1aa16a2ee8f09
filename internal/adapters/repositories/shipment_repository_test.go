package repositories

import (
	"context"
	"errors"
	"freight-tariff-service/internal/domain"
	"freight-tariff-service/internal/ports"
	"freight-tariff-service/testutil"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := testutil.Migrate(); err != nil {
		log.Fatalf("TestMain: run migrations: %v", err)
	}
	os.Exit(m.Run())
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestShipment() domain.Shipment {
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := uuid.New()
	return domain.Shipment{
		ID:          id,
		Number:      domain.NewShipmentNumber(now, id),
		ClientID:    "client-1",
		Origin:      domain.Location{Address: "Av. Corrientes 1000", Coordinates: domain.Coordinates{Lat: -34.6037, Lon: -58.3816}},
		Destination: domain.Location{Address: "Córdoba", Coordinates: domain.Coordinates{Lat: -31.4201, Lon: -64.1888}},
		Cargo: domain.Cargo{
			ID:       uuid.New(),
			ClientID: "client-1",
			WeightKg: dec("18000"),
			VolumeM3: dec("45"),
		},
		Status:      domain.ShipmentPending,
		RequestedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func newTestRoute(s domain.Shipment) domain.Route {
	depot := domain.Location{Address: "Central Depot", Coordinates: domain.Coordinates{Lat: -33, Lon: -60}}
	routeID := uuid.New()
	r := domain.Route{
		ID:         routeID,
		ShipmentID: s.ID,
		Legs: []domain.Leg{
			{ID: uuid.New(), RouteID: routeID, Ordinal: 2, Type: domain.LegDepotDestination, Origin: depot, Destination: s.Destination,
				DistanceKm: dec("400"), EstimatedCost: dec("69000"), EstimatedHours: dec("8.67"), State: domain.LegEstimated},
			{ID: uuid.New(), RouteID: routeID, Ordinal: 1, Type: domain.LegOriginDepot, Origin: s.Origin, Destination: depot,
				DistanceKm: dec("300"), EstimatedCost: dec("52250"), EstimatedHours: dec("31"), DwellDays: 1, State: domain.LegEstimated},
		},
	}
	r.Recompute()
	return r
}

type repoFactory func(t *testing.T) ports.ShipmentRepository

func repoFactories() map[string]repoFactory {
	return map[string]repoFactory{
		"memory": func(t *testing.T) ports.ShipmentRepository { return NewMemoryShipmentRepository() },
		"postgres": func(t *testing.T) ports.ShipmentRepository {
			return NewPgShipmentRepository(testutil.NewPool(t))
		},
	}
}

func TestShipmentRepository(t *testing.T) {
	for name, newRepo := range repoFactories() {
		t.Run(name, func(t *testing.T) {
			t.Run("shipments", func(t *testing.T) { testShipments(t, newRepo(t)) })
			t.Run("routes", func(t *testing.T) { testRoutes(t, newRepo(t)) })
			t.Run("concurrent leg updates", func(t *testing.T) { testConcurrentLegUpdates(t, newRepo(t)) })
			t.Run("confirmed cost", func(t *testing.T) { testConfirmedCost(t, newRepo(t)) })
		})
	}
}

func testShipments(t *testing.T, repo ports.ShipmentRepository) {
	ctx := context.Background()
	s := newTestShipment()
	require.NoError(t, repo.CreateShipment(ctx, s))
	assert.ErrorIs(t, repo.CreateShipment(ctx, s), domain.ErrConflict)

	got, err := repo.GetShipment(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Number, got.Number)
	assert.Equal(t, domain.ShipmentPending, got.Status)
	assert.True(t, got.Cargo.WeightKg.Equal(dec("18000")))
	assert.Equal(t, s.Origin.Lat, got.Origin.Lat)
	assert.False(t, got.EstimatedCost.Valid)

	_, err = repo.GetShipment(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	updated, err := repo.UpdateShipment(ctx, s.ID, func(s *domain.Shipment) error {
		return s.Cancel(time.Now())
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ShipmentCancelled, updated.Status)

	_, err = repo.UpdateShipment(ctx, s.ID, func(s *domain.Shipment) error {
		s.ClientID = "mutated"
		return errors.New("refuse")
	})
	require.Error(t, err)

	got, err = repo.GetShipment(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ShipmentCancelled, got.Status)
	assert.Equal(t, "client-1", got.ClientID, "failed update stores nothing")
}

func testRoutes(t *testing.T, repo ports.ShipmentRepository) {
	ctx := context.Background()
	s := newTestShipment()
	require.NoError(t, repo.CreateShipment(ctx, s))

	route := newTestRoute(s)

	_, err := repo.SaveRoute(ctx, route, func(*domain.Shipment) error { return domain.ErrInvalidTransition })
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = repo.GetRouteByShipment(ctx, s.ID)
	require.ErrorIs(t, err, domain.ErrNotFound, "rejected route is not stored")

	saved, err := repo.SaveRoute(ctx, route, func(sh *domain.Shipment) error {
		return sh.AssignRoute(route, time.Now())
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ShipmentRouteAssigned, saved.Status)

	_, err = repo.SaveRoute(ctx, newTestRoute(s), func(*domain.Shipment) error { return nil })
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := repo.GetRouteByShipment(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, route.ID, got.ID)
	require.Len(t, got.Legs, 2)
	assert.Equal(t, 1, got.Legs[0].Ordinal)
	assert.Equal(t, domain.LegOriginDepot, got.Legs[0].Type)
	assert.Equal(t, 1, got.TotalDepots)
	assert.True(t, got.TotalDistanceKm.Equal(dec("700")))
	assert.True(t, got.EstimatedCost.Equal(dec("121250")))

	byID, err := repo.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	assert.Len(t, byID.Legs, 2)

	legs, err := repo.ListLegs(ctx, route.ID)
	require.NoError(t, err)
	assert.Len(t, legs, 2)

	_, err = repo.ListLegs(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	sh, err := repo.GetShipment(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, sh.EstimatedCost.Decimal.Equal(dec("121250")))
}

func testConcurrentLegUpdates(t *testing.T, repo ports.ShipmentRepository) {
	ctx := context.Background()
	s := newTestShipment()
	require.NoError(t, repo.CreateShipment(ctx, s))
	route := newTestRoute(s)
	_, err := repo.SaveRoute(ctx, route, func(*domain.Shipment) error { return nil })
	require.NoError(t, err)

	legID := route.Legs[0].ID
	const workers = 16

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded []int64
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(vehicle int64) {
			defer wg.Done()
			_, err := repo.UpdateLeg(ctx, legID, func(l *domain.Leg) error {
				return l.Assign(vehicle, "carrier", time.Now())
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded = append(succeeded, vehicle)
			case errors.Is(err, domain.ErrInvalidTransition):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	require.Len(t, succeeded, 1)
	assert.Equal(t, workers-1, rejected)

	l, err := repo.GetLeg(ctx, legID)
	require.NoError(t, err)
	assert.Equal(t, domain.LegAssigned, l.State)
	require.NotNil(t, l.VehicleID)
	assert.Equal(t, succeeded[0], *l.VehicleID)

	_, err = repo.UpdateLeg(ctx, uuid.New(), func(*domain.Leg) error { return nil })
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testConfirmedCost(t *testing.T, repo ports.ShipmentRepository) {
	ctx := context.Background()
	s := newTestShipment()
	require.NoError(t, repo.CreateShipment(ctx, s))
	route := newTestRoute(s)
	_, err := repo.SaveRoute(ctx, route, func(*domain.Shipment) error { return nil })
	require.NoError(t, err)

	costs := map[uuid.UUID]decimal.Decimal{
		route.Legs[0].ID: dec("68000.50"),
		route.Legs[1].ID: dec("51000"),
	}
	require.NoError(t, repo.SaveConfirmedCost(ctx, route.ID, dec("121000.50"), costs))

	got, err := repo.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	assert.True(t, got.ConfirmedCost.Decimal.Equal(dec("121000.50")))
	for _, l := range got.Legs {
		require.True(t, l.RealCost.Valid)
		assert.True(t, l.RealCost.Decimal.Equal(costs[l.ID]))
	}

	sh, err := repo.GetShipment(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, sh.ConfirmedCost.Decimal.Equal(dec("121000.50")))

	err = repo.SaveConfirmedCost(ctx, route.ID, dec("1"), map[uuid.UUID]decimal.Decimal{uuid.New(): dec("1")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = repo.SaveConfirmedCost(ctx, uuid.New(), dec("1"), nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryShipmentRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryShipmentRepository()
	s := newTestShipment()
	require.NoError(t, repo.CreateShipment(ctx, s))
	route := newTestRoute(s)
	_, err := repo.SaveRoute(ctx, route, func(*domain.Shipment) error { return nil })
	require.NoError(t, err)

	legID := route.Legs[0].ID
	l, err := repo.UpdateLeg(ctx, legID, func(l *domain.Leg) error { return l.Assign(5, "c", time.Now()) })
	require.NoError(t, err)

	*l.VehicleID = 99
	l.State = domain.LegFinished

	again, err := repo.GetLeg(ctx, legID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), *again.VehicleID)
	assert.Equal(t, domain.LegAssigned, again.State)
}
