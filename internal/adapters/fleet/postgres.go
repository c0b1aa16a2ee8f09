package fleet

import (
	"context"
	"errors"
	"fmt"
	"freight-tariff-service/internal/domain"
	"freight-tariff-service/internal/platform/obs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// db is the minimal interface satisfied by *pgxpool.Pool and pgx.Tx.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgFleet reads vehicles from a local replica of the fleet registry.
type PgFleet struct {
	db db
}

func NewPgFleet(db db) *PgFleet {
	return &PgFleet{db: db}
}

const vehicleColumns = `id, plate, max_weight_kg, max_volume_m3, fuel_liters_per_km, available`

func (f *PgFleet) Vehicle(ctx context.Context, id int64) (_ domain.Vehicle, err error) {
	defer obs.Time(ctx, "fleet.pg.Vehicle")(&err)

	row := f.db.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = @id`, pgx.NamedArgs{"id": id})
	v, err := scanVehicle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Vehicle{}, domain.NewNotFound("vehicle", id)
	}
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("get vehicle %d: %w: %v", id, domain.ErrUpstreamUnavailable, err)
	}
	return v, nil
}

func (f *PgFleet) EligibleVehicles(ctx context.Context, weightKg, volumeM3 decimal.Decimal) (_ []domain.Vehicle, err error) {
	defer obs.Time(ctx, "fleet.pg.EligibleVehicles")(&err)

	const q = `SELECT ` + vehicleColumns + `
		FROM vehicles
		WHERE available
			AND max_weight_kg >= @weight
			AND max_volume_m3 >= @volume
		ORDER BY id`

	rows, err := f.db.Query(ctx, q, pgx.NamedArgs{"weight": weightKg, "volume": volumeM3})
	if err != nil {
		return nil, fmt.Errorf("eligible vehicles: %w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer rows.Close()

	var out []domain.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("eligible vehicles: scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("eligible vehicles: rows: %w", err)
	}
	return out, nil
}

// Upsert inserts or replaces a vehicle. dbtool uses it to seed fixtures.
func (f *PgFleet) Upsert(ctx context.Context, v domain.Vehicle) error {
	const q = `
		INSERT INTO vehicles (` + vehicleColumns + `)
		VALUES (@id, @plate, @max_weight_kg, @max_volume_m3, @fuel_liters_per_km, @available)
		ON CONFLICT (id) DO UPDATE
		SET plate              = EXCLUDED.plate,
		    max_weight_kg      = EXCLUDED.max_weight_kg,
		    max_volume_m3      = EXCLUDED.max_volume_m3,
		    fuel_liters_per_km = EXCLUDED.fuel_liters_per_km,
		    available          = EXCLUDED.available`

	_, err := f.db.Exec(ctx, q, pgx.NamedArgs{
		"id":                 v.ID,
		"plate":              v.Plate,
		"max_weight_kg":      v.MaxWeightKg,
		"max_volume_m3":      v.MaxVolumeM3,
		"fuel_liters_per_km": v.FuelLitersPerKm,
		"available":          v.Available,
	})
	if err != nil {
		return fmt.Errorf("upsert vehicle %d: %w", v.ID, err)
	}
	return nil
}

func scanVehicle(row pgx.Row) (domain.Vehicle, error) {
	var v domain.Vehicle
	err := row.Scan(&v.ID, &v.Plate, &v.MaxWeightKg, &v.MaxVolumeM3, &v.FuelLitersPerKm, &v.Available)
	return v, err
}
