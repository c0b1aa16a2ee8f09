package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"freight-tariff-service/internal/domain"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

type tierSeed struct {
	LightMaxKg       *decimal.Decimal    `json:"light_max_kg"`
	HeavyMinKg       *decimal.Decimal    `json:"heavy_min_kg"`
	SmallMaxM3       *decimal.Decimal    `json:"small_max_m3"`
	LargeMinM3       *decimal.Decimal    `json:"large_min_m3"`
	LightRate        decimal.NullDecimal `json:"light_rate"`
	MediumRate       decimal.NullDecimal `json:"medium_rate"`
	HeavyRate        decimal.NullDecimal `json:"heavy_rate"`
	SmallRate        decimal.NullDecimal `json:"small_rate"`
	MediumVolumeRate decimal.NullDecimal `json:"medium_volume_rate"`
	LargeRate        decimal.NullDecimal `json:"large_rate"`
}

type TariffSeed struct {
	LegType              string          `json:"leg_type"`
	Description          string          `json:"description"`
	PerKmRate            decimal.Decimal `json:"per_km_rate"`
	ManagementFee        decimal.Decimal `json:"management_fee"`
	ManagementFeePerLeg  decimal.Decimal `json:"management_fee_per_leg"`
	FuelConsumptionPerKm decimal.Decimal `json:"fuel_consumption_per_km"`
	FuelPricePerLiter    decimal.Decimal `json:"fuel_price_per_liter"`
	DwellRatePerDay      decimal.Decimal `json:"dwell_rate_per_day"`
	Tiers                tierSeed        `json:"tiers"`
}

type VehicleSeed struct {
	ID              int64           `json:"id"`
	Plate           string          `json:"plate"`
	MaxWeightKg     decimal.Decimal `json:"max_weight_kg"`
	MaxVolumeM3     decimal.Decimal `json:"max_volume_m3"`
	FuelLitersPerKm decimal.Decimal `json:"fuel_liters_per_km"`
	Available       *bool           `json:"available"`
}

// Seed is the validated content of a catalog fixture file.
type Seed struct {
	Tariffs  []domain.Tariff
	Vehicles []domain.Vehicle
}

// TariffWriter and VehicleWriter are the stores a Seed is applied to.
type TariffWriter interface {
	Create(ctx context.Context, t domain.Tariff) (domain.Tariff, error)
}

type VehicleWriter interface {
	Upsert(ctx context.Context, v domain.Vehicle) error
}

// Read tariffs and vehicles from a JSON fixture file.
func LoadSeedFromJSON(jsonPath string) (Seed, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return Seed{}, fmt.Errorf("load seed: read %q: %w", jsonPath, err)
	}

	var data struct {
		Tariffs  []TariffSeed  `json:"tariffs"`
		Vehicles []VehicleSeed `json:"vehicles"`
	}
	if err := json.Unmarshal(bytes, &data); err != nil {
		return Seed{}, fmt.Errorf("load seed: parse json: %w", err)
	}

	var seed Seed
	for i, item := range data.Tariffs {
		t, err := item.toDomain()
		if err != nil {
			return Seed{}, fmt.Errorf("load seed: tariff at index %d: %w", i+1, err)
		}
		seed.Tariffs = append(seed.Tariffs, t)
	}

	seen := make(map[int64]struct{}, len(data.Vehicles))
	for i, item := range data.Vehicles {
		if item.ID <= 0 {
			return Seed{}, fmt.Errorf("load seed: invalid vehicle id at index %d: %d", i+1, item.ID)
		}
		if _, ok := seen[item.ID]; ok {
			return Seed{}, fmt.Errorf("load seed: duplicate vehicle id %d", item.ID)
		}
		seen[item.ID] = struct{}{}

		if !item.MaxWeightKg.IsPositive() || !item.MaxVolumeM3.IsPositive() {
			return Seed{}, fmt.Errorf("load seed: vehicle %d: capacities must be positive", item.ID)
		}

		available := true
		if item.Available != nil {
			available = *item.Available
		}
		seed.Vehicles = append(seed.Vehicles, domain.Vehicle{
			ID:              item.ID,
			Plate:           strings.TrimSpace(item.Plate),
			MaxWeightKg:     item.MaxWeightKg,
			MaxVolumeM3:     item.MaxVolumeM3,
			FuelLitersPerKm: item.FuelLitersPerKm,
			Available:       available,
		})
	}

	return seed, nil
}

func (s TariffSeed) toDomain() (domain.Tariff, error) {
	var legType domain.LegType
	if strings.TrimSpace(s.LegType) != "" {
		lt, err := domain.ParseLegType(strings.TrimSpace(s.LegType))
		if err != nil {
			return domain.Tariff{}, err
		}
		legType = lt
	}
	if s.PerKmRate.IsNegative() {
		return domain.Tariff{}, fmt.Errorf("per_km_rate must not be negative")
	}

	tiers := domain.DefaultTierSchedule()
	if s.Tiers.LightMaxKg != nil {
		tiers.LightMaxKg = *s.Tiers.LightMaxKg
	}
	if s.Tiers.HeavyMinKg != nil {
		tiers.HeavyMinKg = *s.Tiers.HeavyMinKg
	}
	if s.Tiers.SmallMaxM3 != nil {
		tiers.SmallMaxM3 = *s.Tiers.SmallMaxM3
	}
	if s.Tiers.LargeMinM3 != nil {
		tiers.LargeMinM3 = *s.Tiers.LargeMinM3
	}
	tiers.LightRate = s.Tiers.LightRate
	tiers.MediumRate = s.Tiers.MediumRate
	tiers.HeavyRate = s.Tiers.HeavyRate
	tiers.SmallRate = s.Tiers.SmallRate
	tiers.MediumVolumeRate = s.Tiers.MediumVolumeRate
	tiers.LargeRate = s.Tiers.LargeRate

	return domain.Tariff{
		LegType:              legType,
		Description:          s.Description,
		PerKmRate:            s.PerKmRate,
		ManagementFee:        s.ManagementFee,
		ManagementFeePerLeg:  s.ManagementFeePerLeg,
		FuelConsumptionPerKm: s.FuelConsumptionPerKm,
		FuelPricePerLiter:    s.FuelPricePerLiter,
		DwellRatePerDay:      s.DwellRatePerDay,
		Tiers:                tiers,
		Active:               true,
	}, nil
}

// Apply writes the seed into the given stores.
func (s Seed) Apply(ctx context.Context, tariffs TariffWriter, vehicles VehicleWriter) error {
	for _, t := range s.Tariffs {
		if _, err := tariffs.Create(ctx, t); err != nil {
			return fmt.Errorf("seed tariffs: %w", err)
		}
	}
	for _, v := range s.Vehicles {
		if err := vehicles.Upsert(ctx, v); err != nil {
			return fmt.Errorf("seed vehicles: vehicle %d: %w", v.ID, err)
		}
	}
	return nil
}
