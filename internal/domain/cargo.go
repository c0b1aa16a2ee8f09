package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cargo is the load a shipment moves. Weight and volume drive both tariff
// tier selection and vehicle capacity validation.
type Cargo struct {
	ID          uuid.UUID
	ClientID    string
	WeightKg    decimal.Decimal
	VolumeM3    decimal.Decimal
	Description string
}

func (c Cargo) Validate() error {
	if !c.WeightKg.IsPositive() {
		return fmt.Errorf("%w: cargo weight must be greater than 0, got %s", ErrValidation, c.WeightKg)
	}
	if !c.VolumeM3.IsPositive() {
		return fmt.Errorf("%w: cargo volume must be greater than 0, got %s", ErrValidation, c.VolumeM3)
	}
	return nil
}
