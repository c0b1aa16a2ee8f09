package ports

import (
	"context"
	"freight-tariff-service/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Port: persistence for shipments, their routes and legs.
//
// The Update* methods load one record, apply fn and store the result as a
// single atomic step. A concurrent caller observes either the state before
// or after fn, never a mix. If fn returns an error nothing is stored.
// Lookups of missing records fail with domain.ErrNotFound.
type ShipmentRepository interface {
	CreateShipment(ctx context.Context, s domain.Shipment) error
	GetShipment(ctx context.Context, id uuid.UUID) (domain.Shipment, error)
	UpdateShipment(ctx context.Context, id uuid.UUID, fn func(*domain.Shipment) error) (domain.Shipment, error)

	// Store the route with its legs and apply fn to the owning shipment in the
	// same atomic step. Fails with domain.ErrConflict when the shipment already has a route.
	SaveRoute(ctx context.Context, r domain.Route, fn func(*domain.Shipment) error) (domain.Shipment, error)
	GetRoute(ctx context.Context, id uuid.UUID) (domain.Route, error)
	GetRouteByShipment(ctx context.Context, shipmentID uuid.UUID) (domain.Route, error)

	// Record a confirmed price: per-leg real costs plus the route and shipment confirmed cost.
	SaveConfirmedCost(ctx context.Context, routeID uuid.UUID, total decimal.Decimal, legCosts map[uuid.UUID]decimal.Decimal) error

	GetLeg(ctx context.Context, id uuid.UUID) (domain.Leg, error)
	ListLegs(ctx context.Context, routeID uuid.UUID) ([]domain.Leg, error)
	UpdateLeg(ctx context.Context, id uuid.UUID, fn func(*domain.Leg) error) (domain.Leg, error)
}
