// Package tariffs provides TariffCatalog implementations.
package tariffs

import (
	"context"
	"errors"
	"fmt"
	"freight-tariff-service/internal/domain"
	"freight-tariff-service/internal/platform/obs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// db is the minimal interface satisfied by *pgxpool.Pool and pgx.Tx.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const tariffColumns = `
	id, leg_type, description, per_km_rate, management_fee, management_fee_per_leg,
	fuel_consumption_per_km, fuel_price_per_liter, dwell_rate_per_day,
	weight_light_max_kg, weight_heavy_min_kg, volume_small_max_m3, volume_large_min_m3,
	rate_light, rate_medium, rate_heavy, rate_small, rate_medium_volume, rate_large,
	active, created_at`

// PgCatalog reads tariffs from Postgres. The newest active row wins.
type PgCatalog struct {
	db db
}

func NewPgCatalog(db db) *PgCatalog {
	return &PgCatalog{db: db}
}

func (c *PgCatalog) ActiveTariff(ctx context.Context) (_ domain.Tariff, err error) {
	defer obs.Time(ctx, "tariffs.ActiveTariff")(&err)

	q := `SELECT ` + tariffColumns + `
		FROM tariffs
		WHERE active AND leg_type IS NULL
		ORDER BY id DESC
		LIMIT 1`

	t, err := scanTariff(c.db.QueryRow(ctx, q))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Tariff{}, fmt.Errorf("active tariff: %w: no active tariff configured", domain.ErrTariffUnavailable)
	}
	if err != nil {
		return domain.Tariff{}, fmt.Errorf("active tariff: %w: %v", domain.ErrTariffUnavailable, err)
	}
	return t, nil
}

func (c *PgCatalog) TariffForLegType(ctx context.Context, legType domain.LegType) (_ domain.Tariff, err error) {
	defer obs.Time(ctx, "tariffs.TariffForLegType")(&err)

	q := `SELECT ` + tariffColumns + `
		FROM tariffs
		WHERE active AND leg_type = @leg_type
		ORDER BY id DESC
		LIMIT 1`

	t, err := scanTariff(c.db.QueryRow(ctx, q, pgx.NamedArgs{"leg_type": string(legType)}))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Tariff{}, domain.NewNotFound("tariff for leg type", legType)
	}
	if err != nil {
		return domain.Tariff{}, fmt.Errorf("tariff for leg type %s: %w", legType, err)
	}
	return t, nil
}

// Create inserts a tariff and returns it with id and created_at populated.
func (c *PgCatalog) Create(ctx context.Context, t domain.Tariff) (domain.Tariff, error) {
	q := `
		INSERT INTO tariffs (
			leg_type, description, per_km_rate, management_fee, management_fee_per_leg,
			fuel_consumption_per_km, fuel_price_per_liter, dwell_rate_per_day,
			weight_light_max_kg, weight_heavy_min_kg, volume_small_max_m3, volume_large_min_m3,
			rate_light, rate_medium, rate_heavy, rate_small, rate_medium_volume, rate_large, active)
		VALUES (
			@leg_type, @description, @per_km_rate, @management_fee, @management_fee_per_leg,
			@fuel_consumption_per_km, @fuel_price_per_liter, @dwell_rate_per_day,
			@weight_light_max_kg, @weight_heavy_min_kg, @volume_small_max_m3, @volume_large_min_m3,
			@rate_light, @rate_medium, @rate_heavy, @rate_small, @rate_medium_volume, @rate_large, @active)
		RETURNING ` + tariffColumns

	var legType *string
	if t.LegType != "" {
		s := string(t.LegType)
		legType = &s
	}

	args := pgx.NamedArgs{
		"leg_type":                legType,
		"description":             t.Description,
		"per_km_rate":             t.PerKmRate,
		"management_fee":          t.ManagementFee,
		"management_fee_per_leg":  t.ManagementFeePerLeg,
		"fuel_consumption_per_km": t.FuelConsumptionPerKm,
		"fuel_price_per_liter":    t.FuelPricePerLiter,
		"dwell_rate_per_day":      t.DwellRatePerDay,
		"weight_light_max_kg":     t.Tiers.LightMaxKg,
		"weight_heavy_min_kg":     t.Tiers.HeavyMinKg,
		"volume_small_max_m3":     t.Tiers.SmallMaxM3,
		"volume_large_min_m3":     t.Tiers.LargeMinM3,
		"rate_light":              t.Tiers.LightRate,
		"rate_medium":             t.Tiers.MediumRate,
		"rate_heavy":              t.Tiers.HeavyRate,
		"rate_small":              t.Tiers.SmallRate,
		"rate_medium_volume":      t.Tiers.MediumVolumeRate,
		"rate_large":              t.Tiers.LargeRate,
		"active":                  t.Active,
	}

	created, err := scanTariff(c.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Tariff{}, fmt.Errorf("create tariff: %w", err)
	}
	return created, nil
}

// Deactivate retires every active tariff of the same scope as legType.
// An empty legType retires the system-wide tariffs.
func (c *PgCatalog) Deactivate(ctx context.Context, legType domain.LegType) error {
	q := `UPDATE tariffs SET active = false WHERE active AND leg_type IS NULL`
	args := []any{}
	if legType != "" {
		q = `UPDATE tariffs SET active = false WHERE active AND leg_type = @leg_type`
		args = append(args, pgx.NamedArgs{"leg_type": string(legType)})
	}

	if _, err := c.db.Exec(ctx, q, args...); err != nil {
		return fmt.Errorf("deactivate tariffs: %w", err)
	}
	return nil
}

func scanTariff(row pgx.Row) (domain.Tariff, error) {
	var (
		t       domain.Tariff
		legType *string
	)
	err := row.Scan(
		&t.ID, &legType, &t.Description, &t.PerKmRate, &t.ManagementFee, &t.ManagementFeePerLeg,
		&t.FuelConsumptionPerKm, &t.FuelPricePerLiter, &t.DwellRatePerDay,
		&t.Tiers.LightMaxKg, &t.Tiers.HeavyMinKg, &t.Tiers.SmallMaxM3, &t.Tiers.LargeMinM3,
		&t.Tiers.LightRate, &t.Tiers.MediumRate, &t.Tiers.HeavyRate,
		&t.Tiers.SmallRate, &t.Tiers.MediumVolumeRate, &t.Tiers.LargeRate,
		&t.Active, &t.CreatedAt,
	)
	if err != nil {
		return domain.Tariff{}, err
	}
	if legType != nil {
		t.LegType = domain.LegType(*legType)
	}
	return t, nil
}
