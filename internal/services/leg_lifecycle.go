package services

import (
	"context"
	"errors"
	"fmt"
	"freight-tariff-service/internal/domain"
	"freight-tariff-service/internal/platform/obs"
	"freight-tariff-service/internal/ports"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LegLifecycle drives legs through estimated -> assigned -> started ->
// finished. Each transition is one atomic repository update whose guard runs
// inside the update, so of two racing callers only one succeeds.
type LegLifecycle struct {
	repo     ports.ShipmentRepository
	fleet    ports.FleetCapacityOracle
	costs    *CostCalculator
	notifier ports.TrackingNotifier
	timeout  time.Duration
	now      func() time.Time
	log      *slog.Logger
}

func NewLegLifecycle(
	repo ports.ShipmentRepository,
	fleet ports.FleetCapacityOracle,
	costs *CostCalculator,
	notifier ports.TrackingNotifier,
	fleetTimeout time.Duration,
	log *slog.Logger,
) *LegLifecycle {
	if notifier == nil {
		notifier = discardNotifier{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &LegLifecycle{
		repo:     repo,
		fleet:    fleet,
		costs:    costs,
		notifier: notifier,
		timeout:  fleetTimeout,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log,
	}
}

// WithClock replaces the time source. Used by tests.
func (m *LegLifecycle) WithClock(now func() time.Time) *LegLifecycle {
	m.now = now
	return m
}

// Assign validates the cargo against the vehicle's capacity and records the
// vehicle and carrier. The capacity check fails closed: if the fleet registry
// cannot answer, the assignment is refused.
func (m *LegLifecycle) Assign(ctx context.Context, legID uuid.UUID, vehicleID int64, carrierID string) (_ domain.Leg, err error) {
	defer obs.Time(ctx, "legs.Assign")(&err)

	leg, err := m.repo.GetLeg(ctx, legID)
	if err != nil {
		return domain.Leg{}, fmt.Errorf("assign leg: %w", err)
	}
	if err := leg.CanAssign(); err != nil {
		return domain.Leg{}, fmt.Errorf("assign leg: %w", err)
	}

	route, shipment, err := m.owner(ctx, leg)
	if err != nil {
		return domain.Leg{}, fmt.Errorf("assign leg %s: %w", legID, err)
	}

	vehicle, err := m.vehicle(ctx, vehicleID)
	if err != nil {
		return domain.Leg{}, fmt.Errorf("assign leg %s: %w", legID, err)
	}
	if !vehicle.Available {
		return domain.Leg{}, fmt.Errorf("assign leg %s: %w: vehicle %d is not available", legID, domain.ErrConflict, vehicleID)
	}
	if err := vehicle.CheckCapacity(shipment.Cargo); err != nil {
		return domain.Leg{}, fmt.Errorf("assign leg %s: %w", legID, err)
	}

	updated, err := m.repo.UpdateLeg(ctx, legID, func(l *domain.Leg) error {
		return l.Assign(vehicleID, carrierID, m.now())
	})
	if err != nil {
		return domain.Leg{}, fmt.Errorf("assign leg: %w", err)
	}

	if m.costs != nil {
		if _, err := priceRoute(ctx, m.repo, m.costs, route.ID, shipment.Cargo); err != nil {
			m.log.WarnContext(ctx, "reprice after assignment failed",
				"route_id", route.ID, "leg_id", legID, "error", err)
		}
	}
	return updated, nil
}

// Start records the departure. The first leg to start puts the shipment in transit.
func (m *LegLifecycle) Start(ctx context.Context, legID uuid.UUID) (_ domain.Leg, err error) {
	defer obs.Time(ctx, "legs.Start")(&err)

	leg, err := m.repo.GetLeg(ctx, legID)
	if err != nil {
		return domain.Leg{}, fmt.Errorf("start leg: %w", err)
	}
	route, _, err := m.owner(ctx, leg)
	if err != nil {
		return domain.Leg{}, fmt.Errorf("start leg %s: %w", legID, err)
	}

	now := m.now()
	updated, err := m.repo.UpdateLeg(ctx, legID, func(l *domain.Leg) error {
		return l.Start(now)
	})
	if err != nil {
		return domain.Leg{}, fmt.Errorf("start leg: %w", err)
	}

	var moved bool
	shipment, err := m.repo.UpdateShipment(ctx, route.ShipmentID, func(s *domain.Shipment) error {
		moved = s.MarkInTransit(now)
		return nil
	})
	if err != nil {
		return updated, fmt.Errorf("start leg %s: mark shipment in transit: %w", legID, err)
	}
	if moved {
		m.notifier.Notify(trackingEvent(shipment, &updated.ID, updated.Origin.Address, "shipment in transit", now))
	}
	return updated, nil
}

// Finish records the arrival. When it was the last unfinished leg of the
// route, the shipment completes; only the call that performs that
// transition emits the completion event.
func (m *LegLifecycle) Finish(ctx context.Context, legID uuid.UUID) (_ domain.Leg, err error) {
	defer obs.Time(ctx, "legs.Finish")(&err)

	leg, err := m.repo.GetLeg(ctx, legID)
	if err != nil {
		return domain.Leg{}, fmt.Errorf("finish leg: %w", err)
	}
	if _, _, err := m.owner(ctx, leg); err != nil {
		return domain.Leg{}, fmt.Errorf("finish leg %s: %w", legID, err)
	}

	now := m.now()
	updated, err := m.repo.UpdateLeg(ctx, legID, func(l *domain.Leg) error {
		return l.Finish(now)
	})
	if err != nil {
		// A repeated finish still runs the cascade, so a completion that
		// failed after the leg committed is repaired by retrying.
		var te *domain.TransitionError
		if errors.As(err, &te) && te.Current == domain.LegFinished {
			m.retryCompletion(ctx, legID, now)
		}
		return domain.Leg{}, fmt.Errorf("finish leg: %w", err)
	}

	if err := m.completeRoute(ctx, updated, now); err != nil {
		return updated, fmt.Errorf("finish leg %s: %w", legID, err)
	}
	return updated, nil
}

func (m *LegLifecycle) retryCompletion(ctx context.Context, legID uuid.UUID, now time.Time) {
	leg, err := m.repo.GetLeg(ctx, legID)
	if err == nil {
		err = m.completeRoute(ctx, leg, now)
	}
	if err != nil {
		m.log.WarnContext(ctx, "completion retry failed", "leg_id", legID, "error", err)
	}
}

func (m *LegLifecycle) completeRoute(ctx context.Context, last domain.Leg, now time.Time) error {
	legs, err := m.repo.ListLegs(ctx, last.RouteID)
	if err != nil {
		return fmt.Errorf("list route legs: %w", err)
	}
	if !domain.AllFinished(legs) {
		return nil
	}

	route, err := m.repo.GetRoute(ctx, last.RouteID)
	if err != nil {
		return fmt.Errorf("load route: %w", err)
	}

	var completed bool
	shipment, err := m.repo.UpdateShipment(ctx, route.ShipmentID, func(s *domain.Shipment) error {
		var err error
		completed, err = s.Complete(now)
		return err
	})
	if err != nil {
		return fmt.Errorf("complete shipment: %w", err)
	}
	if completed {
		m.notifier.Notify(trackingEvent(shipment, nil, last.Destination.Address, "shipment completed", now))
	}
	return nil
}

// owner loads the route and shipment a leg belongs to and refuses legs of
// cancelled or completed shipments.
func (m *LegLifecycle) owner(ctx context.Context, leg domain.Leg) (domain.Route, domain.Shipment, error) {
	route, err := m.repo.GetRoute(ctx, leg.RouteID)
	if err != nil {
		return domain.Route{}, domain.Shipment{}, fmt.Errorf("load route: %w", err)
	}
	shipment, err := m.repo.GetShipment(ctx, route.ShipmentID)
	if err != nil {
		return domain.Route{}, domain.Shipment{}, fmt.Errorf("load shipment: %w", err)
	}
	if shipment.Status.Terminal() {
		return domain.Route{}, domain.Shipment{}, fmt.Errorf("%w: shipment %s is %s",
			domain.ErrInvalidTransition, shipment.ID, shipment.Status)
	}
	return route, shipment, nil
}

func (m *LegLifecycle) vehicle(ctx context.Context, id int64) (domain.Vehicle, error) {
	ctx, cancel := withTimeout(ctx, m.timeout)
	defer cancel()

	v, err := m.fleet.Vehicle(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Vehicle{}, err
		}
		return domain.Vehicle{}, fmt.Errorf("capacity check for vehicle %d: %w", id, upstream(err))
	}
	return v, nil
}

// priceRoute re-prices a route in confirmed mode and stores the result.
func priceRoute(
	ctx context.Context,
	repo ports.ShipmentRepository,
	costs *CostCalculator,
	routeID uuid.UUID,
	cargo domain.Cargo,
) (CostBreakdown, error) {
	route, err := repo.GetRoute(ctx, routeID)
	if err != nil {
		return CostBreakdown{}, fmt.Errorf("price route: %w", err)
	}

	b, err := costs.ConfirmedForRoute(ctx, route, cargo)
	if err != nil {
		return CostBreakdown{}, fmt.Errorf("price route %s: %w", routeID, err)
	}

	legCosts := make(map[uuid.UUID]decimal.Decimal, len(b.Legs))
	for _, l := range b.Legs {
		legCosts[l.LegID] = l.Total
	}
	if err := repo.SaveConfirmedCost(ctx, routeID, b.Total, legCosts); err != nil {
		return CostBreakdown{}, fmt.Errorf("price route %s: %w", routeID, err)
	}
	return b, nil
}

func trackingEvent(s domain.Shipment, legID *uuid.UUID, location, description string, at time.Time) domain.TrackingEvent {
	return domain.TrackingEvent{
		ShipmentID:  s.ID,
		CargoID:     s.Cargo.ID,
		LegID:       legID,
		State:       string(s.Status),
		Location:    location,
		Description: description,
		OccurredAt:  at,
	}
}

type discardNotifier struct{}

func (discardNotifier) Notify(domain.TrackingEvent) {}
