package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TierSchedule splits cargo into weight and volume brackets, each with an
// optional per-km rate. A bracket without a rate falls through to the next one.
type TierSchedule struct {
	LightMaxKg decimal.Decimal // weight below this is light
	HeavyMinKg decimal.Decimal // weight above this is heavy
	SmallMaxM3 decimal.Decimal // volume below this is small
	LargeMinM3 decimal.Decimal // volume above this is large

	LightRate  decimal.NullDecimal
	MediumRate decimal.NullDecimal
	HeavyRate  decimal.NullDecimal

	SmallRate        decimal.NullDecimal
	MediumVolumeRate decimal.NullDecimal
	LargeRate        decimal.NullDecimal
}

// DefaultTierSchedule returns the standard thresholds with no bracket rates set.
func DefaultTierSchedule() TierSchedule {
	return TierSchedule{
		LightMaxKg: decimal.NewFromInt(5000),
		HeavyMinKg: decimal.NewFromInt(15000),
		SmallMaxM3: decimal.NewFromInt(20),
		LargeMinM3: decimal.NewFromInt(50),
	}
}

// HasRates reports whether any bracket rate is configured.
func (s TierSchedule) HasRates() bool {
	return s.LightRate.Valid || s.MediumRate.Valid || s.HeavyRate.Valid ||
		s.SmallRate.Valid || s.MediumVolumeRate.Valid || s.LargeRate.Valid
}

func (s TierSchedule) weightRate(w decimal.Decimal) decimal.Decimal {
	switch {
	case s.LightRate.Valid && w.LessThan(s.LightMaxKg):
		return s.LightRate.Decimal
	case s.MediumRate.Valid && w.LessThanOrEqual(s.HeavyMinKg):
		return s.MediumRate.Decimal
	case s.HeavyRate.Valid:
		return s.HeavyRate.Decimal
	}
	return decimal.Zero
}

func (s TierSchedule) volumeRate(v decimal.Decimal) decimal.Decimal {
	switch {
	case s.SmallRate.Valid && v.LessThan(s.SmallMaxM3):
		return s.SmallRate.Decimal
	case s.MediumVolumeRate.Valid && v.LessThanOrEqual(s.LargeMinM3):
		return s.MediumVolumeRate.Decimal
	case s.LargeRate.Valid:
		return s.LargeRate.Decimal
	}
	return decimal.Zero
}

// Tariff is a versioned pricing configuration. An empty LegType applies system-wide.
type Tariff struct {
	ID                   int64
	LegType              LegType
	Description          string
	PerKmRate            decimal.Decimal
	ManagementFee        decimal.Decimal
	ManagementFeePerLeg  decimal.Decimal
	FuelConsumptionPerKm decimal.Decimal // liters per km when the leg has no vehicle
	FuelPricePerLiter    decimal.Decimal
	DwellRatePerDay      decimal.Decimal
	Tiers                TierSchedule
	Active               bool
	CreatedAt            time.Time
}

// RatePerKm picks the per-km rate for the cargo: the larger of the weight and
// volume bracket rates, or the flat rate when no bracket yields one.
func (t Tariff) RatePerKm(c Cargo) decimal.Decimal {
	byWeight := t.Tiers.weightRate(c.WeightKg)
	byVolume := t.Tiers.volumeRate(c.VolumeM3)
	if byWeight.IsZero() && byVolume.IsZero() {
		return t.PerKmRate
	}
	return decimal.Max(byWeight, byVolume)
}

// ManagementCharge is the fixed fee plus the per-leg fee for n legs.
func (t Tariff) ManagementCharge(legs int) decimal.Decimal {
	return Round2(t.ManagementFee.Add(t.ManagementFeePerLeg.Mul(decimal.NewFromInt(int64(legs)))))
}

// FuelPerKm is the fuel money spent per km at the tariff's default consumption.
func (t Tariff) FuelPerKm() decimal.Decimal {
	return t.FuelConsumptionPerKm.Mul(t.FuelPricePerLiter)
}
