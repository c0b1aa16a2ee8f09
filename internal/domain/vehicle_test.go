package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestVehicleCheckCapacity(t *testing.T) {
	v := Vehicle{ID: 7, MaxWeightKg: dec("10000"), MaxVolumeM3: dec("40")}

	tests := []struct {
		name      string
		cargo     Cargo
		dimension string
		excess    string
	}{
		{name: "fits", cargo: Cargo{WeightKg: dec("10000"), VolumeM3: dec("40")}},
		{name: "over weight", cargo: Cargo{WeightKg: dec("12000"), VolumeM3: dec("10")}, dimension: "weight", excess: "2000"},
		{name: "over volume", cargo: Cargo{WeightKg: dec("100"), VolumeM3: dec("45.5")}, dimension: "volume", excess: "5.5"},
		{name: "weight reported first", cargo: Cargo{WeightKg: dec("10001"), VolumeM3: dec("41")}, dimension: "weight", excess: "1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := v.CheckCapacity(tc.cargo)
			if tc.dimension == "" {
				require.NoError(t, err)
				assert.True(t, v.Fits(tc.cargo))
				return
			}

			require.ErrorIs(t, err, ErrCapacityExceeded)
			var ce *CapacityError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tc.dimension, ce.Dimension)
			assert.Equal(t, int64(7), ce.VehicleID)
			assert.True(t, ce.Excess().Equal(dec(tc.excess)), "excess = %s", ce.Excess())
			assert.False(t, v.Fits(tc.cargo))
		})
	}
}
