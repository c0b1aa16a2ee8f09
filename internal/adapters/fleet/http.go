// Package fleet provides FleetCapacityOracle implementations.
package fleet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"freight-tariff-service/internal/domain"
	"freight-tariff-service/internal/platform/httpx"
	"freight-tariff-service/internal/platform/obs"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type vehicleDTO struct {
	ID              int64           `json:"id"`
	Plate           string          `json:"plate"`
	MaxWeightKg     decimal.Decimal `json:"max_weight_kg"`
	MaxVolumeM3     decimal.Decimal `json:"max_volume_m3"`
	FuelLitersPerKm decimal.Decimal `json:"fuel_liters_per_km"`
	Available       bool            `json:"available"`
}

func (v vehicleDTO) toDomain() domain.Vehicle {
	return domain.Vehicle{
		ID:              v.ID,
		Plate:           v.Plate,
		MaxWeightKg:     v.MaxWeightKg,
		MaxVolumeM3:     v.MaxVolumeM3,
		FuelLitersPerKm: v.FuelLitersPerKm,
		Available:       v.Available,
	}
}

// HTTPClient reads vehicle capacities from the logistics registry service.
// Every failure other than an unknown vehicle is reported as
// domain.ErrUpstreamUnavailable so callers fail closed.
type HTTPClient struct {
	http    *httpx.Retrier
	baseURL string
}

func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("fleet service url is empty")
	}
	return &HTTPClient{
		http:    httpx.NewRetrier(timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (c *HTTPClient) get(ctx context.Context, endpoint string, out any) error {
	resp, err := c.http.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) Vehicle(ctx context.Context, id int64) (_ domain.Vehicle, err error) {
	defer obs.Time(ctx, "fleet.http.Vehicle")(&err)

	var v vehicleDTO
	err = c.get(ctx, c.baseURL+"/vehicles/"+strconv.FormatInt(id, 10), &v)

	var se *httpx.StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return domain.Vehicle{}, domain.NewNotFound("vehicle", id)
	}
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("get vehicle %d: %w: %v", id, domain.ErrUpstreamUnavailable, err)
	}
	return v.toDomain(), nil
}

func (c *HTTPClient) EligibleVehicles(ctx context.Context, weightKg, volumeM3 decimal.Decimal) (_ []domain.Vehicle, err error) {
	defer obs.Time(ctx, "fleet.http.EligibleVehicles")(&err)

	q := url.Values{}
	q.Set("weight_kg", weightKg.String())
	q.Set("volume_m3", volumeM3.String())

	var vs []vehicleDTO
	if err := c.get(ctx, c.baseURL+"/vehicles/eligible?"+q.Encode(), &vs); err != nil {
		return nil, fmt.Errorf("eligible vehicles: %w: %v", domain.ErrUpstreamUnavailable, err)
	}

	out := make([]domain.Vehicle, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.toDomain())
	}
	return out, nil
}
