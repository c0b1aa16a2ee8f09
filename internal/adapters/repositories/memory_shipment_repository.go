package repositories

import (
	"context"
	"fmt"
	"freight-tariff-service/internal/domain"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryShipmentRepository keeps shipments, routes and legs in process memory.
// A single mutex serializes writers; every read returns a copy, so callers
// can never mutate stored state without going through an Update method.
type MemoryShipmentRepository struct {
	mu              sync.Mutex
	shipments       map[uuid.UUID]domain.Shipment
	routes          map[uuid.UUID]domain.Route
	routeByShipment map[uuid.UUID]uuid.UUID
	legs            map[uuid.UUID]domain.Leg
	legsByRoute     map[uuid.UUID][]uuid.UUID
}

func NewMemoryShipmentRepository() *MemoryShipmentRepository {
	return &MemoryShipmentRepository{
		shipments:       make(map[uuid.UUID]domain.Shipment),
		routes:          make(map[uuid.UUID]domain.Route),
		routeByShipment: make(map[uuid.UUID]uuid.UUID),
		legs:            make(map[uuid.UUID]domain.Leg),
		legsByRoute:     make(map[uuid.UUID][]uuid.UUID),
	}
}

func (r *MemoryShipmentRepository) CreateShipment(_ context.Context, s domain.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.shipments[s.ID]; ok {
		return fmt.Errorf("create shipment: %w: shipment %s already exists", domain.ErrConflict, s.ID)
	}
	r.shipments[s.ID] = cloneShipment(s)
	return nil
}

func (r *MemoryShipmentRepository) GetShipment(_ context.Context, id uuid.UUID) (domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.shipments[id]
	if !ok {
		return domain.Shipment{}, domain.NewNotFound("shipment", id)
	}
	return cloneShipment(s), nil
}

func (r *MemoryShipmentRepository) UpdateShipment(
	_ context.Context,
	id uuid.UUID,
	fn func(*domain.Shipment) error,
) (domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.shipments[id]
	if !ok {
		return domain.Shipment{}, domain.NewNotFound("shipment", id)
	}

	s = cloneShipment(s)
	if err := fn(&s); err != nil {
		return domain.Shipment{}, err
	}
	r.shipments[id] = cloneShipment(s)
	return s, nil
}

func (r *MemoryShipmentRepository) SaveRoute(
	_ context.Context,
	route domain.Route,
	fn func(*domain.Shipment) error,
) (domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.shipments[route.ShipmentID]
	if !ok {
		return domain.Shipment{}, domain.NewNotFound("shipment", route.ShipmentID)
	}
	if existing, ok := r.routeByShipment[route.ShipmentID]; ok {
		return domain.Shipment{}, fmt.Errorf("save route: %w: shipment %s already has route %s",
			domain.ErrConflict, route.ShipmentID, existing)
	}

	s = cloneShipment(s)
	if err := fn(&s); err != nil {
		return domain.Shipment{}, err
	}

	ids := make([]uuid.UUID, 0, len(route.Legs))
	for _, l := range route.Legs {
		l.RouteID = route.ID
		r.legs[l.ID] = cloneLeg(l)
		ids = append(ids, l.ID)
	}
	stored := route
	stored.Legs = nil
	r.routes[route.ID] = stored
	r.legsByRoute[route.ID] = ids
	r.routeByShipment[route.ShipmentID] = route.ID
	r.shipments[s.ID] = cloneShipment(s)

	return s, nil
}

func (r *MemoryShipmentRepository) GetRoute(_ context.Context, id uuid.UUID) (domain.Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.routeLocked(id)
}

func (r *MemoryShipmentRepository) GetRouteByShipment(_ context.Context, shipmentID uuid.UUID) (domain.Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.routeByShipment[shipmentID]
	if !ok {
		return domain.Route{}, domain.NewNotFound("route for shipment", shipmentID)
	}
	return r.routeLocked(id)
}

func (r *MemoryShipmentRepository) routeLocked(id uuid.UUID) (domain.Route, error) {
	route, ok := r.routes[id]
	if !ok {
		return domain.Route{}, domain.NewNotFound("route", id)
	}
	route.Legs = r.legsLocked(id)
	return route, nil
}

func (r *MemoryShipmentRepository) legsLocked(routeID uuid.UUID) []domain.Leg {
	ids := r.legsByRoute[routeID]
	legs := make([]domain.Leg, 0, len(ids))
	for _, id := range ids {
		legs = append(legs, cloneLeg(r.legs[id]))
	}
	sort.Slice(legs, func(i, j int) bool { return legs[i].Ordinal < legs[j].Ordinal })
	return legs
}

func (r *MemoryShipmentRepository) SaveConfirmedCost(
	_ context.Context,
	routeID uuid.UUID,
	total decimal.Decimal,
	legCosts map[uuid.UUID]decimal.Decimal,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	route, ok := r.routes[routeID]
	if !ok {
		return domain.NewNotFound("route", routeID)
	}
	for id := range legCosts {
		if l, ok := r.legs[id]; !ok || l.RouteID != routeID {
			return fmt.Errorf("save confirmed cost: %w", domain.NewNotFound("leg", id))
		}
	}

	for id, cost := range legCosts {
		l := r.legs[id]
		l.RealCost = domain.Null(cost)
		r.legs[id] = l
	}
	route.ConfirmedCost = domain.Null(total)
	r.routes[routeID] = route

	if s, ok := r.shipments[route.ShipmentID]; ok {
		s.ConfirmedCost = domain.Null(total)
		r.shipments[s.ID] = s
	}
	return nil
}

func (r *MemoryShipmentRepository) GetLeg(_ context.Context, id uuid.UUID) (domain.Leg, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.legs[id]
	if !ok {
		return domain.Leg{}, domain.NewNotFound("leg", id)
	}
	return cloneLeg(l), nil
}

func (r *MemoryShipmentRepository) ListLegs(_ context.Context, routeID uuid.UUID) ([]domain.Leg, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.routes[routeID]; !ok {
		return nil, domain.NewNotFound("route", routeID)
	}
	return r.legsLocked(routeID), nil
}

func (r *MemoryShipmentRepository) UpdateLeg(
	_ context.Context,
	id uuid.UUID,
	fn func(*domain.Leg) error,
) (domain.Leg, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.legs[id]
	if !ok {
		return domain.Leg{}, domain.NewNotFound("leg", id)
	}

	l = cloneLeg(l)
	if err := fn(&l); err != nil {
		return domain.Leg{}, err
	}
	r.legs[id] = cloneLeg(l)
	return l, nil
}

func cloneShipment(s domain.Shipment) domain.Shipment {
	s.CompletedAt = cloneTime(s.CompletedAt)
	return s
}

func cloneLeg(l domain.Leg) domain.Leg {
	if l.VehicleID != nil {
		v := *l.VehicleID
		l.VehicleID = &v
	}
	l.StartedAt = cloneTime(l.StartedAt)
	l.FinishedAt = cloneTime(l.FinishedAt)
	return l
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
