package domain

import (
	"fmt"
	"math"
)

// Immutable geographic coordinates (latitude, longitude) in decimal degrees.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// Key returns a stable cache key with the coordinates rounded to 5 places (~1 m).
func (c Coordinates) Key() string { return fmt.Sprintf("%.5f,%.5f", c.Lat, c.Lon) }

func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return fmt.Errorf("%w: coordinates must be numbers", ErrValidation)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrValidation, c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrValidation, c.Lon)
	}
	return nil
}

// A named point on a route: shipment origin/destination or a depot.
type Location struct {
	Address string
	Coordinates
}
