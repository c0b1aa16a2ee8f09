package ports

import (
	"context"
	"freight-tariff-service/internal/domain"

	"github.com/shopspring/decimal"
)

// Contract for retrieving road distance between two points.
type DistanceProvider interface {
	// Return the distance in km, rounded to 2 decimal places.
	DistanceKm(ctx context.Context, from, to domain.Coordinates) (decimal.Decimal, error)
}

// Persistent store of previously resolved distances.
type DistanceCache interface {
	// Return the cached distance and whether it was found.
	Get(ctx context.Context, from, to domain.Coordinates) (decimal.Decimal, bool, error)
	Put(ctx context.Context, from, to domain.Coordinates, km decimal.Decimal) error
}
