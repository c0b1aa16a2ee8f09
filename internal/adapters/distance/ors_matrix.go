package distance

import (
	"context"
	"fmt"
	"freight-tariff-service/internal/domain"

	"github.com/shopspring/decimal"
)

type matrixRequest struct {
	Locations    [][]float64 `json:"locations"`
	Destinations []int       `json:"destinations"`
	Metrics      []string    `json:"metrics"`
	Sources      []int       `json:"sources"`
	Units        string      `json:"units"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
}

// fetchMatrixRow retrieves road distances in km from one origin to many
// destinations using the OpenRouteService matrix endpoint. The result is
// aligned with destinations.
func (o *ORSDistanceProvider) fetchMatrixRow(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
) ([]decimal.Decimal, error) {
	if len(destinations) == 0 {
		return []decimal.Decimal{}, nil
	}

	locations := make([][]float64, 0, 1+len(destinations))
	locations = append(locations, origin.CoordsToList())
	destIdx := make([]int, 0, len(destinations))
	for i, c := range destinations {
		locations = append(locations, c.CoordsToList())
		destIdx = append(destIdx, i+1)
	}

	var mr matrixResponse
	err := o.postJSON(ctx, "/v2/matrix/"+o.profile, matrixRequest{
		Locations:    locations,
		Destinations: destIdx,
		Metrics:      []string{"distance"},
		Sources:      []int{0},
		Units:        "m",
	}, &mr)
	if err != nil {
		return nil, fmt.Errorf("matrix row: %w", err)
	}

	if len(mr.Distances) != 1 {
		return nil, fmt.Errorf("matrix row: expected 1 source row, got %d", len(mr.Distances))
	}

	row := mr.Distances[0]
	if len(row) != len(destinations) {
		return nil, fmt.Errorf("matrix row: %d distances for %d destinations", len(row), len(destinations))
	}

	out := make([]decimal.Decimal, len(destinations))
	for i, meters := range row {
		// ORS reports null for unroutable pairs.
		if meters == nil {
			return nil, fmt.Errorf("matrix returned no route to %s", destinations[i].Key())
		}
		out[i] = domain.Round2(decimal.NewFromFloat(*meters).Div(decimal.NewFromInt(1000)))
	}

	return out, nil
}
