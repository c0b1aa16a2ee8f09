package services

import (
	"context"
	"fmt"
	"freight-tariff-service/internal/domain"
	"freight-tariff-service/internal/platform/obs"
	"freight-tariff-service/internal/ports"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NewShipment is a client's request to move a cargo.
type NewShipment struct {
	ClientID    string
	Origin      domain.Location
	Destination domain.Location
	WeightKg    decimal.Decimal
	VolumeM3    decimal.Decimal
	Description string
}

// ShipmentService handles intake, route selection, cancellation and repricing.
type ShipmentService struct {
	repo      ports.ShipmentRepository
	estimator *RouteEstimator
	costs     *CostCalculator
	notifier  ports.TrackingNotifier
	now       func() time.Time
}

func NewShipmentService(
	repo ports.ShipmentRepository,
	estimator *RouteEstimator,
	costs *CostCalculator,
	notifier ports.TrackingNotifier,
) *ShipmentService {
	if notifier == nil {
		notifier = discardNotifier{}
	}
	return &ShipmentService{
		repo:      repo,
		estimator: estimator,
		costs:     costs,
		notifier:  notifier,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source. Used by tests.
func (s *ShipmentService) WithClock(now func() time.Time) *ShipmentService {
	s.now = now
	return s
}

func (s *ShipmentService) Create(ctx context.Context, req NewShipment) (_ domain.Shipment, err error) {
	defer obs.Time(ctx, "shipments.Create")(&err)

	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" {
		return domain.Shipment{}, fmt.Errorf("create shipment: %w: client_id is required", domain.ErrValidation)
	}
	if err := req.Origin.Validate(); err != nil {
		return domain.Shipment{}, fmt.Errorf("create shipment: origin: %w", err)
	}
	if err := req.Destination.Validate(); err != nil {
		return domain.Shipment{}, fmt.Errorf("create shipment: destination: %w", err)
	}

	cargo := domain.Cargo{
		ID:          uuid.New(),
		ClientID:    clientID,
		WeightKg:    req.WeightKg,
		VolumeM3:    req.VolumeM3,
		Description: req.Description,
	}
	if err := cargo.Validate(); err != nil {
		return domain.Shipment{}, fmt.Errorf("create shipment: %w", err)
	}

	now := s.now()
	id := uuid.New()
	shipment := domain.Shipment{
		ID:          id,
		Number:      domain.NewShipmentNumber(now, id),
		ClientID:    clientID,
		Origin:      req.Origin,
		Destination: req.Destination,
		Cargo:       cargo,
		Status:      domain.ShipmentPending,
		RequestedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateShipment(ctx, shipment); err != nil {
		return domain.Shipment{}, fmt.Errorf("create shipment: %w", err)
	}

	s.notifier.Notify(trackingEvent(shipment, nil, shipment.Origin.Address, "shipment created", now))
	return shipment, nil
}

func (s *ShipmentService) Get(ctx context.Context, id uuid.UUID) (domain.Shipment, error) {
	shipment, err := s.repo.GetShipment(ctx, id)
	if err != nil {
		return domain.Shipment{}, fmt.Errorf("get shipment: %w", err)
	}
	return shipment, nil
}

func (s *ShipmentService) GetRoute(ctx context.Context, shipmentID uuid.UUID) (domain.Route, error) {
	route, err := s.repo.GetRouteByShipment(ctx, shipmentID)
	if err != nil {
		return domain.Route{}, fmt.Errorf("get route: %w", err)
	}
	return route, nil
}

func (s *ShipmentService) GetLeg(ctx context.Context, id uuid.UUID) (domain.Leg, error) {
	leg, err := s.repo.GetLeg(ctx, id)
	if err != nil {
		return domain.Leg{}, fmt.Errorf("get leg: %w", err)
	}
	return leg, nil
}

func (s *ShipmentService) TentativeRoutes(ctx context.Context, shipmentID uuid.UUID) ([]RouteCandidate, error) {
	shipment, err := s.Get(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	return s.estimator.TentativeRoutes(ctx, shipment)
}

// AssignRoute stores the chosen candidate as the shipment's route. Candidates
// are recomputed, so the index refers to the order TentativeRoutes returns.
// dwellDays is recorded on every leg that ends at a depot.
func (s *ShipmentService) AssignRoute(
	ctx context.Context,
	shipmentID uuid.UUID,
	candidateIndex int,
	dwellDays int,
) (_ domain.Route, err error) {
	defer obs.Time(ctx, "shipments.AssignRoute")(&err)

	if dwellDays < 0 {
		return domain.Route{}, fmt.Errorf("assign route: %w: dwell days must not be negative, got %d",
			domain.ErrValidation, dwellDays)
	}

	shipment, err := s.Get(ctx, shipmentID)
	if err != nil {
		return domain.Route{}, fmt.Errorf("assign route: %w", err)
	}
	if shipment.Status != domain.ShipmentPending {
		return domain.Route{}, fmt.Errorf("assign route: %w: shipment %s is %q, required %q",
			domain.ErrInvalidTransition, shipmentID, shipment.Status, domain.ShipmentPending)
	}

	candidates, err := s.estimator.TentativeRoutes(ctx, shipment)
	if err != nil {
		return domain.Route{}, fmt.Errorf("assign route: %w", err)
	}
	if candidateIndex < 0 || candidateIndex >= len(candidates) {
		return domain.Route{}, fmt.Errorf("assign route: %w: candidate %d out of range [0, %d)",
			domain.ErrValidation, candidateIndex, len(candidates))
	}

	now := s.now()
	route := buildRoute(shipmentID, candidates[candidateIndex], dwellDays, now)

	updated, err := s.repo.SaveRoute(ctx, route, func(sh *domain.Shipment) error {
		return sh.AssignRoute(route, now)
	})
	if err != nil {
		return domain.Route{}, fmt.Errorf("assign route: %w", err)
	}

	s.notifier.Notify(trackingEvent(updated, nil, updated.Origin.Address, "route assigned: "+route.Description, now))
	return route, nil
}

func buildRoute(shipmentID uuid.UUID, c RouteCandidate, dwellDays int, now time.Time) domain.Route {
	route := domain.Route{
		ID:          uuid.New(),
		ShipmentID:  shipmentID,
		Description: c.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, cl := range c.Legs {
		leg := domain.Leg{
			ID:             uuid.New(),
			RouteID:        route.ID,
			Ordinal:        cl.Ordinal,
			Type:           cl.Type,
			Origin:         cl.Origin,
			Destination:    cl.Destination,
			DistanceKm:     cl.DistanceKm,
			EstimatedCost:  cl.EstimatedCost,
			EstimatedHours: cl.EstimatedHours,
			State:          domain.LegEstimated,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if cl.Type.EndsAtDepot() {
			leg.DwellDays = dwellDays
		}
		route.Legs = append(route.Legs, leg)
	}
	route.Recompute()
	return route
}

func (s *ShipmentService) Cancel(ctx context.Context, shipmentID uuid.UUID) (_ domain.Shipment, err error) {
	defer obs.Time(ctx, "shipments.Cancel")(&err)

	now := s.now()
	shipment, err := s.repo.UpdateShipment(ctx, shipmentID, func(sh *domain.Shipment) error {
		return sh.Cancel(now)
	})
	if err != nil {
		return domain.Shipment{}, fmt.Errorf("cancel shipment: %w", err)
	}

	s.notifier.Notify(trackingEvent(shipment, nil, "", "shipment cancelled", now))
	return shipment, nil
}

// PriceRoute re-prices the shipment's route in confirmed mode and stores the
// per-leg real costs and the confirmed total.
func (s *ShipmentService) PriceRoute(ctx context.Context, shipmentID uuid.UUID) (CostBreakdown, error) {
	shipment, err := s.Get(ctx, shipmentID)
	if err != nil {
		return CostBreakdown{}, fmt.Errorf("price route: %w", err)
	}
	route, err := s.repo.GetRouteByShipment(ctx, shipmentID)
	if err != nil {
		return CostBreakdown{}, fmt.Errorf("price route: %w", err)
	}
	return priceRoute(ctx, s.repo, s.costs, route.ID, shipment.Cargo)
}
