package ports

import (
	"context"
	"freight-tariff-service/internal/domain"

	"github.com/shopspring/decimal"
)

// Port: the fleet registry's view of vehicle capacities.
type FleetCapacityOracle interface {
	// Return one vehicle. Fails with domain.ErrNotFound for unknown ids.
	Vehicle(ctx context.Context, id int64) (domain.Vehicle, error)

	// Return available vehicles able to carry the given weight and volume.
	EligibleVehicles(ctx context.Context, weightKg, volumeM3 decimal.Decimal) ([]domain.Vehicle, error)
}
