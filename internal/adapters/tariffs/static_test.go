package tariffs

import (
	"context"
	"freight-tariff-service/internal/domain"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticCatalogActiveTariff(t *testing.T) {
	ctx := context.Background()

	empty := NewStaticCatalog()
	_, err := empty.ActiveTariff(ctx)
	assert.ErrorIs(t, err, domain.ErrTariffUnavailable)

	c := NewStaticCatalog(
		domain.Tariff{PerKmRate: decimal.NewFromInt(100), Active: true},
		domain.Tariff{PerKmRate: decimal.NewFromInt(120), Active: true},
		domain.Tariff{PerKmRate: decimal.NewFromInt(999), Active: false},
		domain.Tariff{LegType: domain.LegDepotDepot, PerKmRate: decimal.NewFromInt(80), Active: true},
	)

	got, err := c.ActiveTariff(ctx)
	require.NoError(t, err)
	assert.Equal(t, "120", got.PerKmRate.String(), "newest active system-wide tariff wins")
	assert.Equal(t, int64(2), got.ID)
}

func TestStaticCatalogTariffForLegType(t *testing.T) {
	ctx := context.Background()
	c := NewStaticCatalog(
		domain.Tariff{PerKmRate: decimal.NewFromInt(120), Active: true},
		domain.Tariff{LegType: domain.LegDepotDepot, PerKmRate: decimal.NewFromInt(80), Active: true},
	)

	got, err := c.TariffForLegType(ctx, domain.LegDepotDepot)
	require.NoError(t, err)
	assert.Equal(t, "80", got.PerKmRate.String())

	_, err = c.TariffForLegType(ctx, domain.LegOriginDepot)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
