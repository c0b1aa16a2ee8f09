package repositories

import (
	"context"
	"errors"
	"fmt"
	"freight-tariff-service/internal/domain"
	"freight-tariff-service/internal/platform/obs"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// db is the minimal interface satisfied by *pgxpool.Pool and pgx.Tx.
// Begin on a pgx.Tx opens a savepoint, so integration tests can run the
// repository inside a transaction that is rolled back afterwards.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PgShipmentRepository stores shipments, routes and legs in Postgres.
// Update methods lock the row with SELECT ... FOR UPDATE inside a transaction.
type PgShipmentRepository struct {
	db db
}

func NewPgShipmentRepository(db db) *PgShipmentRepository {
	return &PgShipmentRepository{db: db}
}

const shipmentColumns = `
	id, number, client_id,
	origin_address, origin_lat, origin_lon,
	destination_address, destination_lat, destination_lon,
	cargo_id, cargo_weight_kg, cargo_volume_m3, cargo_description,
	status, estimated_cost, confirmed_cost, settled_cost, estimated_hours, real_hours,
	requested_at, created_at, updated_at, completed_at`

const routeColumns = `
	id, shipment_id, description, total_legs, total_depots, total_distance_km,
	estimated_cost, estimated_hours, confirmed_cost, created_at, updated_at`

const legColumns = `
	id, route_id, ordinal, leg_type,
	origin_address, origin_lat, origin_lon,
	destination_address, destination_lat, destination_lon,
	distance_km, estimated_cost, estimated_hours, real_cost, dwell_days,
	vehicle_id, carrier_id, state, started_at, finished_at, created_at, updated_at`

func (r *PgShipmentRepository) CreateShipment(ctx context.Context, s domain.Shipment) (err error) {
	defer obs.Time(ctx, "repo.CreateShipment")(&err)

	const q = `
		INSERT INTO shipments (` + shipmentColumns + `)
		VALUES (
			@id, @number, @client_id,
			@origin_address, @origin_lat, @origin_lon,
			@destination_address, @destination_lat, @destination_lon,
			@cargo_id, @cargo_weight_kg, @cargo_volume_m3, @cargo_description,
			@status, @estimated_cost, @confirmed_cost, @settled_cost, @estimated_hours, @real_hours,
			@requested_at, @created_at, @updated_at, @completed_at)`

	args := shipmentArgs(s)
	args["id"] = s.ID
	args["number"] = s.Number
	args["client_id"] = s.ClientID
	args["origin_address"] = s.Origin.Address
	args["origin_lat"] = s.Origin.Lat
	args["origin_lon"] = s.Origin.Lon
	args["destination_address"] = s.Destination.Address
	args["destination_lat"] = s.Destination.Lat
	args["destination_lon"] = s.Destination.Lon
	args["cargo_id"] = s.Cargo.ID
	args["cargo_weight_kg"] = s.Cargo.WeightKg
	args["cargo_volume_m3"] = s.Cargo.VolumeM3
	args["cargo_description"] = s.Cargo.Description
	args["requested_at"] = s.RequestedAt
	args["created_at"] = nonZero(s.CreatedAt)

	if _, err := r.db.Exec(ctx, q, args); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create shipment: %w: %v", domain.ErrConflict, err)
		}
		return fmt.Errorf("create shipment: %w", err)
	}
	return nil
}

func (r *PgShipmentRepository) GetShipment(ctx context.Context, id uuid.UUID) (domain.Shipment, error) {
	s, err := scanShipment(r.db.QueryRow(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = @id`,
		pgx.NamedArgs{"id": id}))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Shipment{}, domain.NewNotFound("shipment", id)
	}
	if err != nil {
		return domain.Shipment{}, fmt.Errorf("get shipment %s: %w", id, err)
	}
	return s, nil
}

func (r *PgShipmentRepository) UpdateShipment(
	ctx context.Context,
	id uuid.UUID,
	fn func(*domain.Shipment) error,
) (out domain.Shipment, err error) {
	defer obs.Time(ctx, "repo.UpdateShipment")(&err)

	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		s, err := lockShipment(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(&s); err != nil {
			return err
		}
		if err := updateShipment(ctx, tx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return domain.Shipment{}, err
	}
	return out, nil
}

func (r *PgShipmentRepository) SaveRoute(
	ctx context.Context,
	route domain.Route,
	fn func(*domain.Shipment) error,
) (out domain.Shipment, err error) {
	defer obs.Time(ctx, "repo.SaveRoute")(&err)

	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		s, err := lockShipment(ctx, tx, route.ShipmentID)
		if err != nil {
			return err
		}

		var existing uuid.UUID
		err = tx.QueryRow(ctx, `SELECT id FROM routes WHERE shipment_id = @shipment_id`,
			pgx.NamedArgs{"shipment_id": route.ShipmentID}).Scan(&existing)
		if err == nil {
			return fmt.Errorf("save route: %w: shipment %s already has route %s",
				domain.ErrConflict, route.ShipmentID, existing)
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("save route: check existing route: %w", err)
		}

		if err := fn(&s); err != nil {
			return err
		}

		if err := insertRoute(ctx, tx, route); err != nil {
			return err
		}
		for _, l := range route.Legs {
			l.RouteID = route.ID
			if err := insertLeg(ctx, tx, l); err != nil {
				return err
			}
		}
		if err := updateShipment(ctx, tx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Shipment{}, fmt.Errorf("save route: %w: %v", domain.ErrConflict, err)
		}
		return domain.Shipment{}, err
	}
	return out, nil
}

func (r *PgShipmentRepository) GetRoute(ctx context.Context, id uuid.UUID) (domain.Route, error) {
	return r.getRoute(ctx, `SELECT `+routeColumns+` FROM routes WHERE id = @id`, pgx.NamedArgs{"id": id},
		domain.NewNotFound("route", id))
}

func (r *PgShipmentRepository) GetRouteByShipment(ctx context.Context, shipmentID uuid.UUID) (domain.Route, error) {
	return r.getRoute(ctx, `SELECT `+routeColumns+` FROM routes WHERE shipment_id = @id`, pgx.NamedArgs{"id": shipmentID},
		domain.NewNotFound("route for shipment", shipmentID))
}

func (r *PgShipmentRepository) getRoute(ctx context.Context, q string, args pgx.NamedArgs, notFound error) (domain.Route, error) {
	route, err := scanRoute(r.db.QueryRow(ctx, q, args))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Route{}, notFound
	}
	if err != nil {
		return domain.Route{}, fmt.Errorf("get route: %w", err)
	}

	legs, err := r.listLegs(ctx, route.ID)
	if err != nil {
		return domain.Route{}, err
	}
	route.Legs = legs
	return route, nil
}

func (r *PgShipmentRepository) SaveConfirmedCost(
	ctx context.Context,
	routeID uuid.UUID,
	total decimal.Decimal,
	legCosts map[uuid.UUID]decimal.Decimal,
) (err error) {
	defer obs.Time(ctx, "repo.SaveConfirmedCost")(&err)

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var shipmentID uuid.UUID
		err := tx.QueryRow(ctx, `
			UPDATE routes
			SET confirmed_cost = @cost, updated_at = now()
			WHERE id = @id
			RETURNING shipment_id`,
			pgx.NamedArgs{"id": routeID, "cost": total}).Scan(&shipmentID)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NewNotFound("route", routeID)
		}
		if err != nil {
			return fmt.Errorf("save confirmed cost: update route: %w", err)
		}

		for legID, cost := range legCosts {
			tag, err := tx.Exec(ctx, `
				UPDATE legs
				SET real_cost = @cost, updated_at = now()
				WHERE id = @id AND route_id = @route_id`,
				pgx.NamedArgs{"id": legID, "route_id": routeID, "cost": cost})
			if err != nil {
				return fmt.Errorf("save confirmed cost: update leg %s: %w", legID, err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("save confirmed cost: %w", domain.NewNotFound("leg", legID))
			}
		}

		_, err = tx.Exec(ctx, `
			UPDATE shipments
			SET confirmed_cost = @cost, updated_at = now()
			WHERE id = @id`,
			pgx.NamedArgs{"id": shipmentID, "cost": total})
		if err != nil {
			return fmt.Errorf("save confirmed cost: update shipment: %w", err)
		}
		return nil
	})
}

func (r *PgShipmentRepository) GetLeg(ctx context.Context, id uuid.UUID) (domain.Leg, error) {
	l, err := scanLeg(r.db.QueryRow(ctx, `SELECT `+legColumns+` FROM legs WHERE id = @id`, pgx.NamedArgs{"id": id}))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Leg{}, domain.NewNotFound("leg", id)
	}
	if err != nil {
		return domain.Leg{}, fmt.Errorf("get leg %s: %w", id, err)
	}
	return l, nil
}

func (r *PgShipmentRepository) ListLegs(ctx context.Context, routeID uuid.UUID) ([]domain.Leg, error) {
	legs, err := r.listLegs(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if len(legs) == 0 {
		var exists bool
		err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM routes WHERE id = @id)`,
			pgx.NamedArgs{"id": routeID}).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("list legs: check route: %w", err)
		}
		if !exists {
			return nil, domain.NewNotFound("route", routeID)
		}
	}
	return legs, nil
}

func (r *PgShipmentRepository) listLegs(ctx context.Context, routeID uuid.UUID) ([]domain.Leg, error) {
	rows, err := r.db.Query(ctx, `SELECT `+legColumns+` FROM legs WHERE route_id = @route_id ORDER BY ordinal`,
		pgx.NamedArgs{"route_id": routeID})
	if err != nil {
		return nil, fmt.Errorf("list legs: %w", err)
	}
	defer rows.Close()

	legs := []domain.Leg{}
	for rows.Next() {
		l, err := scanLeg(rows)
		if err != nil {
			return nil, fmt.Errorf("list legs: scan: %w", err)
		}
		legs = append(legs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list legs: rows: %w", err)
	}
	return legs, nil
}

func (r *PgShipmentRepository) UpdateLeg(
	ctx context.Context,
	id uuid.UUID,
	fn func(*domain.Leg) error,
) (out domain.Leg, err error) {
	defer obs.Time(ctx, "repo.UpdateLeg")(&err)

	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		l, err := scanLeg(tx.QueryRow(ctx, `SELECT `+legColumns+` FROM legs WHERE id = @id FOR UPDATE`,
			pgx.NamedArgs{"id": id}))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NewNotFound("leg", id)
		}
		if err != nil {
			return fmt.Errorf("update leg %s: lock: %w", id, err)
		}

		if err := fn(&l); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE legs
			SET vehicle_id  = @vehicle_id,
			    carrier_id  = @carrier_id,
			    state       = @state,
			    real_cost   = @real_cost,
			    started_at  = @started_at,
			    finished_at = @finished_at,
			    updated_at  = @updated_at
			WHERE id = @id`,
			pgx.NamedArgs{
				"id":          l.ID,
				"vehicle_id":  l.VehicleID,
				"carrier_id":  l.CarrierID,
				"state":       string(l.State),
				"real_cost":   l.RealCost,
				"started_at":  l.StartedAt,
				"finished_at": l.FinishedAt,
				"updated_at":  nonZero(l.UpdatedAt),
			})
		if err != nil {
			return fmt.Errorf("update leg %s: %w", id, err)
		}
		out = l
		return nil
	})
	if err != nil {
		return domain.Leg{}, err
	}
	return out, nil
}

func lockShipment(ctx context.Context, tx pgx.Tx, id uuid.UUID) (domain.Shipment, error) {
	s, err := scanShipment(tx.QueryRow(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = @id FOR UPDATE`,
		pgx.NamedArgs{"id": id}))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Shipment{}, domain.NewNotFound("shipment", id)
	}
	if err != nil {
		return domain.Shipment{}, fmt.Errorf("lock shipment %s: %w", id, err)
	}
	return s, nil
}

// shipmentArgs holds the mutable shipment columns.
func shipmentArgs(s domain.Shipment) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":              s.ID,
		"status":          string(s.Status),
		"estimated_cost":  s.EstimatedCost,
		"confirmed_cost":  s.ConfirmedCost,
		"settled_cost":    s.SettledCost,
		"estimated_hours": s.EstimatedHours,
		"real_hours":      s.RealHours,
		"updated_at":      nonZero(s.UpdatedAt),
		"completed_at":    s.CompletedAt,
	}
}

func updateShipment(ctx context.Context, tx pgx.Tx, s domain.Shipment) error {
	_, err := tx.Exec(ctx, `
		UPDATE shipments
		SET status          = @status,
		    estimated_cost  = @estimated_cost,
		    confirmed_cost  = @confirmed_cost,
		    settled_cost    = @settled_cost,
		    estimated_hours = @estimated_hours,
		    real_hours      = @real_hours,
		    updated_at      = @updated_at,
		    completed_at    = @completed_at
		WHERE id = @id`, shipmentArgs(s))
	if err != nil {
		return fmt.Errorf("update shipment %s: %w", s.ID, err)
	}
	return nil
}

func insertRoute(ctx context.Context, tx pgx.Tx, route domain.Route) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO routes (`+routeColumns+`)
		VALUES (@id, @shipment_id, @description, @total_legs, @total_depots, @total_distance_km,
			@estimated_cost, @estimated_hours, @confirmed_cost, @created_at, @updated_at)`,
		pgx.NamedArgs{
			"id":                route.ID,
			"shipment_id":       route.ShipmentID,
			"description":       route.Description,
			"total_legs":        route.TotalLegs,
			"total_depots":      route.TotalDepots,
			"total_distance_km": route.TotalDistanceKm,
			"estimated_cost":    route.EstimatedCost,
			"estimated_hours":   route.EstimatedHours,
			"confirmed_cost":    route.ConfirmedCost,
			"created_at":        nonZero(route.CreatedAt),
			"updated_at":        nonZero(route.UpdatedAt),
		})
	if err != nil {
		return fmt.Errorf("insert route %s: %w", route.ID, err)
	}
	return nil
}

func insertLeg(ctx context.Context, tx pgx.Tx, l domain.Leg) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO legs (`+legColumns+`)
		VALUES (@id, @route_id, @ordinal, @leg_type,
			@origin_address, @origin_lat, @origin_lon,
			@destination_address, @destination_lat, @destination_lon,
			@distance_km, @estimated_cost, @estimated_hours, @real_cost, @dwell_days,
			@vehicle_id, @carrier_id, @state, @started_at, @finished_at, @created_at, @updated_at)`,
		pgx.NamedArgs{
			"id":                  l.ID,
			"route_id":            l.RouteID,
			"ordinal":             l.Ordinal,
			"leg_type":            string(l.Type),
			"origin_address":      l.Origin.Address,
			"origin_lat":          l.Origin.Lat,
			"origin_lon":          l.Origin.Lon,
			"destination_address": l.Destination.Address,
			"destination_lat":     l.Destination.Lat,
			"destination_lon":     l.Destination.Lon,
			"distance_km":         l.DistanceKm,
			"estimated_cost":      l.EstimatedCost,
			"estimated_hours":     l.EstimatedHours,
			"real_cost":           l.RealCost,
			"dwell_days":          l.DwellDays,
			"vehicle_id":          l.VehicleID,
			"carrier_id":          l.CarrierID,
			"state":               string(l.State),
			"started_at":          l.StartedAt,
			"finished_at":         l.FinishedAt,
			"created_at":          nonZero(l.CreatedAt),
			"updated_at":          nonZero(l.UpdatedAt),
		})
	if err != nil {
		return fmt.Errorf("insert leg %d: %w", l.Ordinal, err)
	}
	return nil
}

func scanShipment(row pgx.Row) (domain.Shipment, error) {
	var (
		s      domain.Shipment
		status string
	)
	err := row.Scan(
		&s.ID, &s.Number, &s.ClientID,
		&s.Origin.Address, &s.Origin.Lat, &s.Origin.Lon,
		&s.Destination.Address, &s.Destination.Lat, &s.Destination.Lon,
		&s.Cargo.ID, &s.Cargo.WeightKg, &s.Cargo.VolumeM3, &s.Cargo.Description,
		&status, &s.EstimatedCost, &s.ConfirmedCost, &s.SettledCost, &s.EstimatedHours, &s.RealHours,
		&s.RequestedAt, &s.CreatedAt, &s.UpdatedAt, &s.CompletedAt,
	)
	if err != nil {
		return domain.Shipment{}, err
	}
	s.Status = domain.ShipmentStatus(status)
	s.Cargo.ClientID = s.ClientID
	return s, nil
}

func scanRoute(row pgx.Row) (domain.Route, error) {
	var r domain.Route
	err := row.Scan(
		&r.ID, &r.ShipmentID, &r.Description, &r.TotalLegs, &r.TotalDepots, &r.TotalDistanceKm,
		&r.EstimatedCost, &r.EstimatedHours, &r.ConfirmedCost, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

func scanLeg(row pgx.Row) (domain.Leg, error) {
	var (
		l              domain.Leg
		legType, state string
	)
	err := row.Scan(
		&l.ID, &l.RouteID, &l.Ordinal, &legType,
		&l.Origin.Address, &l.Origin.Lat, &l.Origin.Lon,
		&l.Destination.Address, &l.Destination.Lat, &l.Destination.Lon,
		&l.DistanceKm, &l.EstimatedCost, &l.EstimatedHours, &l.RealCost, &l.DwellDays,
		&l.VehicleID, &l.CarrierID, &state, &l.StartedAt, &l.FinishedAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return domain.Leg{}, err
	}
	l.Type = domain.LegType(legType)
	l.State = domain.LegState(state)
	return l, nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nonZero(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
