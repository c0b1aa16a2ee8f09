// Package config loads application configuration from environment variables.
// A .env file, when present, is loaded by the binaries before Load runs.
package config

import (
	"fmt"
	"freight-tariff-service/internal/domain"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all configuration values for the service binaries.
type Config struct {
	Port     string
	LogLevel string

	// DatabaseURL is optional. Without it the server runs on in-memory
	// stores and a static tariff catalog.
	DatabaseURL string

	// SeedPath is the tariff and vehicle fixture loaded into the in-memory
	// stores, and into Postgres by dbtool.
	SeedPath string

	// RedisURL enables the Redis distance cache; RedisTTL bounds entry age.
	RedisURL string
	RedisTTL time.Duration

	// ORSAPIKey enables live road distances. Without it distances are haversine only.
	ORSAPIKey       string
	ORSBaseURL      string
	DistanceTimeout time.Duration

	// FleetServiceURL points at the logistics registry. Without it vehicles
	// are read from Postgres, or the static fleet when there is no database.
	FleetServiceURL string
	FleetTimeout    time.Duration

	// TariffTimeout bounds each tariff catalog lookup.
	TariffTimeout time.Duration

	// KafkaBroker enables publishing tracking events to KafkaTopic.
	KafkaBroker     string
	KafkaTopic      string
	TrackingTimeout time.Duration

	Pricing Pricing
}

// Pricing consolidates the constants used by the route estimator.
// DefaultPerKmRate and DepotDwellCharge are business decisions; change
// them here, not in code.
type Pricing struct {
	DefaultPerKmRate       decimal.Decimal
	DefaultFuelConsumption decimal.Decimal // liters per km
	DefaultFuelPrice       decimal.Decimal // per liter
	DepotDwellCharge       decimal.Decimal // flat, per depot-ending leg
	DepotDwellHours        decimal.Decimal
	AverageSpeedKmh        decimal.Decimal
	LoadUnloadHours        decimal.Decimal // per leg
	MaxCargoFactor         decimal.Decimal
	DefaultDepot           domain.Location
}

// DefaultPricing returns the pricing constants used when no override is set.
func DefaultPricing() Pricing {
	return Pricing{
		DefaultPerKmRate:       decimal.NewFromInt(120),
		DefaultFuelConsumption: decimal.RequireFromString("0.35"),
		DefaultFuelPrice:       decimal.NewFromInt(150),
		DepotDwellCharge:       decimal.NewFromInt(500),
		DepotDwellHours:        decimal.NewFromInt(24),
		AverageSpeedKmh:        decimal.NewFromInt(60),
		LoadUnloadHours:        decimal.NewFromInt(2),
		MaxCargoFactor:         decimal.RequireFromString("2.0"),
		DefaultDepot: domain.Location{
			Address:     "Central Depot",
			Coordinates: domain.Coordinates{Lat: -34.6037, Lon: -58.3816},
		},
	}
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing every variable whose value could not be parsed.
func Load() (Config, error) {
	p := &parser{}

	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		SeedPath:        getEnv("SEED_PATH", "data/seeds/catalog.json"),
		RedisURL:        os.Getenv("REDIS_URL"),
		RedisTTL:        p.duration("REDIS_TTL", 24*time.Hour),
		ORSAPIKey:       strings.TrimSpace(os.Getenv("ORS_API_KEY")),
		ORSBaseURL:      getEnv("ORS_BASE_URL", "https://api.openrouteservice.org"),
		DistanceTimeout: p.duration("DISTANCE_TIMEOUT", 5*time.Second),
		FleetServiceURL: os.Getenv("FLEET_SERVICE_URL"),
		FleetTimeout:    p.duration("FLEET_TIMEOUT", 5*time.Second),
		TariffTimeout:   p.duration("TARIFF_TIMEOUT", 3*time.Second),
		KafkaBroker:     os.Getenv("KAFKA_BROKER"),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "shipment-tracking"),
		TrackingTimeout: p.duration("TRACKING_TIMEOUT", 5*time.Second),
	}

	def := DefaultPricing()
	cfg.Pricing = Pricing{
		DefaultPerKmRate:       p.decimal("DEFAULT_PER_KM_RATE", def.DefaultPerKmRate),
		DefaultFuelConsumption: p.decimal("DEFAULT_FUEL_CONSUMPTION", def.DefaultFuelConsumption),
		DefaultFuelPrice:       p.decimal("DEFAULT_FUEL_PRICE", def.DefaultFuelPrice),
		DepotDwellCharge:       p.decimal("DEPOT_DWELL_CHARGE", def.DepotDwellCharge),
		DepotDwellHours:        p.decimal("DEPOT_DWELL_HOURS", def.DepotDwellHours),
		AverageSpeedKmh:        p.decimal("AVERAGE_SPEED_KMH", def.AverageSpeedKmh),
		LoadUnloadHours:        p.decimal("LOAD_UNLOAD_HOURS", def.LoadUnloadHours),
		MaxCargoFactor:         p.decimal("MAX_CARGO_FACTOR", def.MaxCargoFactor),
		DefaultDepot: domain.Location{
			Address: getEnv("DEFAULT_DEPOT_NAME", def.DefaultDepot.Address),
			Coordinates: domain.Coordinates{
				Lat: p.float("DEFAULT_DEPOT_LAT", def.DefaultDepot.Lat),
				Lon: p.float("DEFAULT_DEPOT_LON", def.DefaultDepot.Lon),
			},
		},
	}

	if !cfg.Pricing.AverageSpeedKmh.IsPositive() {
		p.invalid = append(p.invalid, "AVERAGE_SPEED_KMH")
	}
	if err := cfg.Pricing.DefaultDepot.Validate(); err != nil {
		p.invalid = append(p.invalid, "DEFAULT_DEPOT_LAT/DEFAULT_DEPOT_LON")
	}

	if len(p.invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(p.invalid, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parser collects the names of variables that fail to parse.
type parser struct {
	invalid []string
}

func (p *parser) decimal(key string, fallback decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		p.invalid = append(p.invalid, key)
		return fallback
	}
	return d
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.invalid = append(p.invalid, key)
		return fallback
	}
	return d
}

func (p *parser) float(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.invalid = append(p.invalid, key)
		return fallback
	}
	return f
}
