package config_test

import (
	"freight-tariff-service/internal/config"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var allVars = []string{
	"PORT", "LOG_LEVEL", "DATABASE_URL", "SEED_PATH", "REDIS_URL", "REDIS_TTL", "ORS_API_KEY", "ORS_BASE_URL",
	"DISTANCE_TIMEOUT", "FLEET_SERVICE_URL", "FLEET_TIMEOUT", "TARIFF_TIMEOUT", "KAFKA_BROKER", "KAFKA_TOPIC",
	"TRACKING_TIMEOUT", "DEFAULT_PER_KM_RATE", "DEFAULT_FUEL_CONSUMPTION", "DEFAULT_FUEL_PRICE",
	"DEPOT_DWELL_CHARGE", "DEPOT_DWELL_HOURS", "AVERAGE_SPEED_KMH", "LOAD_UNLOAD_HOURS",
	"MAX_CARGO_FACTOR", "DEFAULT_DEPOT_NAME", "DEFAULT_DEPOT_LAT", "DEFAULT_DEPOT_LON",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allVars {
		t.Setenv(k, "")
	}
}

// TestLoad_defaults verifies every optional variable falls back to its default.
func TestLoad_defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()

	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "info", cfg.LogLevel)
	require.Empty(t, cfg.DatabaseURL)
	require.Equal(t, "data/seeds/catalog.json", cfg.SeedPath)
	require.Equal(t, 5*time.Second, cfg.DistanceTimeout)
	require.Equal(t, 5*time.Second, cfg.FleetTimeout)
	require.Equal(t, 3*time.Second, cfg.TariffTimeout)
	require.Equal(t, "shipment-tracking", cfg.KafkaTopic)

	def := config.DefaultPricing()
	require.True(t, cfg.Pricing.DefaultPerKmRate.Equal(def.DefaultPerKmRate))
	require.Equal(t, "120", cfg.Pricing.DefaultPerKmRate.String())
	require.Equal(t, "52.5", cfg.Pricing.DefaultFuelConsumption.Mul(cfg.Pricing.DefaultFuelPrice).String())
	require.Equal(t, "Central Depot", cfg.Pricing.DefaultDepot.Address)
	require.Equal(t, -34.6037, cfg.Pricing.DefaultDepot.Lat)
	require.Equal(t, -58.3816, cfg.Pricing.DefaultDepot.Lon)
}

// TestLoad_overrides verifies values can be overridden via env vars.
func TestLoad_overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://user:pass@db:5432/freight")
	t.Setenv("DISTANCE_TIMEOUT", "750ms")
	t.Setenv("TARIFF_TIMEOUT", "1s")
	t.Setenv("DEFAULT_PER_KM_RATE", "100")
	t.Setenv("DEPOT_DWELL_CHARGE", "650.50")
	t.Setenv("DEFAULT_DEPOT_NAME", "Rosario Hub")
	t.Setenv("DEFAULT_DEPOT_LAT", "-32.9442")
	t.Setenv("DEFAULT_DEPOT_LON", "-60.6505")

	cfg, err := config.Load()

	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "postgres://user:pass@db:5432/freight", cfg.DatabaseURL)
	require.Equal(t, 750*time.Millisecond, cfg.DistanceTimeout)
	require.Equal(t, time.Second, cfg.TariffTimeout)
	require.Equal(t, "100", cfg.Pricing.DefaultPerKmRate.String())
	require.Equal(t, "650.5", cfg.Pricing.DepotDwellCharge.String())
	require.Equal(t, "Rosario Hub", cfg.Pricing.DefaultDepot.Address)
	require.Equal(t, -32.9442, cfg.Pricing.DefaultDepot.Lat)
}

// TestLoad_invalid verifies the error names every unparsable variable.
func TestLoad_invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEFAULT_PER_KM_RATE", "cheap")
	t.Setenv("FLEET_TIMEOUT", "-1s")
	t.Setenv("AVERAGE_SPEED_KMH", "0")
	t.Setenv("DEFAULT_DEPOT_LAT", "123")

	_, err := config.Load()

	require.Error(t, err)
	require.ErrorContains(t, err, "DEFAULT_PER_KM_RATE")
	require.ErrorContains(t, err, "FLEET_TIMEOUT")
	require.ErrorContains(t, err, "AVERAGE_SPEED_KMH")
	require.ErrorContains(t, err, "DEFAULT_DEPOT_LAT")
}
