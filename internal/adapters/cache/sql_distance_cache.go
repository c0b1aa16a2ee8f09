package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"freight-tariff-service/internal/domain"
	"freight-tariff-service/internal/platform/obs"

	"github.com/shopspring/decimal"
)

// SQLDistanceCache is a SQL-backed cache of resolved distances keyed by the
// rounded coordinate pair.
type SQLDistanceCache struct {
	DB *sql.DB
}

func NewSQLDistanceCache(db *sql.DB) *SQLDistanceCache {
	return &SQLDistanceCache{DB: db}
}

// Fetch a cached distance for one origin and destination.
func (s *SQLDistanceCache) Get(
	ctx context.Context,
	from domain.Coordinates,
	to domain.Coordinates,
) (_ decimal.Decimal, _ bool, err error) {
	defer obs.Time(ctx, "distance.cache.Get")(&err)

	if s.DB == nil {
		return decimal.Zero, false, errors.New("distance cache: db is nil")
	}

	q := `
	SELECT distance_km
	FROM distance_cache
	WHERE origin_key = $1
		AND destination_key = $2;
	`

	var km decimal.Decimal
	err = s.DB.QueryRowContext(ctx, q, from.Key(), to.Key()).Scan(&km)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("get distance cache: query distance_cache table: %w", err)
	}

	return km, true, nil
}

// Store a resolved distance, replacing any previous value for the pair.
func (s *SQLDistanceCache) Put(
	ctx context.Context,
	from domain.Coordinates,
	to domain.Coordinates,
	km decimal.Decimal,
) error {
	if s.DB == nil {
		return errors.New("distance cache: db is nil")
	}

	if km.IsNegative() {
		return fmt.Errorf("insert distance cache: negative distance %s", km)
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO distance_cache (origin_key, destination_key, distance_km)
	VALUES ($1, $2, $3)
	ON CONFLICT (origin_key, destination_key) DO UPDATE
	SET distance_km = EXCLUDED.distance_km,
		updated_at = now();
	`, from.Key(), to.Key(), km)
	if err != nil {
		return fmt.Errorf("insert distance cache %s -> %s: %w", from.Key(), to.Key(), err)
	}

	return nil
}
