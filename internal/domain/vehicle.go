package domain

import (
	"github.com/shopspring/decimal"
)

// Vehicle is the capacity view of a fleet truck. The fleet registry owns it.
type Vehicle struct {
	ID              int64
	Plate           string
	MaxWeightKg     decimal.Decimal
	MaxVolumeM3     decimal.Decimal
	FuelLitersPerKm decimal.Decimal
	Available       bool
}

// CheckCapacity fails with a *CapacityError naming the first dimension the
// cargo exceeds. Weight is checked before volume.
func (v Vehicle) CheckCapacity(c Cargo) error {
	if c.WeightKg.GreaterThan(v.MaxWeightKg) {
		return &CapacityError{VehicleID: v.ID, Dimension: "weight", Unit: "kg", Cargo: c.WeightKg, Max: v.MaxWeightKg}
	}
	if c.VolumeM3.GreaterThan(v.MaxVolumeM3) {
		return &CapacityError{VehicleID: v.ID, Dimension: "volume", Unit: "m3", Cargo: c.VolumeM3, Max: v.MaxVolumeM3}
	}
	return nil
}

// Fits reports whether the cargo is within both limits.
func (v Vehicle) Fits(c Cargo) bool { return v.CheckCapacity(c) == nil }
