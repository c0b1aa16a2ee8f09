package ports

import (
	"context"
	"freight-tariff-service/internal/domain"
)

// Port: read-only access to the tariff catalog.
type TariffCatalog interface {
	// Return the most recent active system-wide tariff.
	// Fails with domain.ErrTariffUnavailable when none is active.
	ActiveTariff(ctx context.Context) (domain.Tariff, error)

	// Return the most recent active tariff for a leg type.
	// Fails with domain.ErrNotFound when the type has no tariff of its own.
	TariffForLegType(ctx context.Context, legType domain.LegType) (domain.Tariff, error)
}
