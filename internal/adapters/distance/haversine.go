package distance

import (
	"context"
	"freight-tariff-service/internal/domain"
	"math"

	"github.com/shopspring/decimal"
)

const earthRadiusKm = 6371.0

// HaversineKm is the great-circle distance between two points in km,
// rounded half-up to 2 decimal places.
func HaversineKm(from, to domain.Coordinates) decimal.Decimal {
	lat1 := from.Lat * math.Pi / 180
	lat2 := to.Lat * math.Pi / 180
	dLat := (to.Lat - from.Lat) * math.Pi / 180
	dLon := (to.Lon - from.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return domain.Round2(decimal.NewFromFloat(earthRadiusKm * c))
}

// HaversineProvider serves straight-line distances only.
type HaversineProvider struct{}

func (HaversineProvider) DistanceKm(_ context.Context, from, to domain.Coordinates) (decimal.Decimal, error) {
	return HaversineKm(from, to), nil
}
