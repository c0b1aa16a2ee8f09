package repositories

import (
	"context"
	"freight-tariff-service/internal/adapters/fleet"
	"freight-tariff-service/internal/adapters/tariffs"
	"freight-tariff-service/internal/domain"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSeedFromJSONFixture(t *testing.T) {
	seed, err := LoadSeedFromJSON(filepath.Join("..", "..", "..", "data", "seeds", "catalog.json"))
	require.NoError(t, err)
	require.Len(t, seed.Tariffs, 2)
	require.Len(t, seed.Vehicles, 4)

	system := seed.Tariffs[0]
	assert.Equal(t, domain.LegType(""), system.LegType)
	assert.True(t, system.Active)
	assert.True(t, system.Tiers.HeavyRate.Valid)
	assert.True(t, system.Tiers.LightMaxKg.Equal(decimal.NewFromInt(5000)), "thresholds default when omitted")
	assert.Equal(t, domain.LegDepotDepot, seed.Tariffs[1].LegType)
	assert.False(t, seed.Tariffs[1].Tiers.HasRates())

	assert.True(t, seed.Vehicles[0].Available)
	assert.False(t, seed.Vehicles[3].Available)

	ctx := context.Background()
	catalog := tariffs.NewStaticCatalog()
	f := fleet.NewStaticFleet()
	require.NoError(t, seed.Apply(ctx, catalog, f))

	active, err := catalog.ActiveTariff(ctx)
	require.NoError(t, err)
	assert.Equal(t, "120", active.PerKmRate.String())

	v, err := f.Vehicle(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "AE300FF", v.Plate)
}

func TestLoadSeedFromJSONRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"tariffs": [`},
		{"unknown leg type", `{"tariffs": [{"leg_type": "air", "per_km_rate": 1}]}`},
		{"negative rate", `{"tariffs": [{"per_km_rate": -1}]}`},
		{"vehicle id", `{"vehicles": [{"id": 0, "max_weight_kg": 1, "max_volume_m3": 1}]}`},
		{"duplicate vehicle", `{"vehicles": [{"id": 1, "max_weight_kg": 1, "max_volume_m3": 1}, {"id": 1, "max_weight_kg": 1, "max_volume_m3": 1}]}`},
		{"zero capacity", `{"vehicles": [{"id": 1, "max_weight_kg": 0, "max_volume_m3": 1}]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "seed.json")
			require.NoError(t, os.WriteFile(path, []byte(tc.body), 0o600))

			_, err := LoadSeedFromJSON(path)
			assert.Error(t, err)
		})
	}

	_, err := LoadSeedFromJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
