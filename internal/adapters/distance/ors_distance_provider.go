package distance

import (
	"context"
	"errors"
	"fmt"
	"freight-tariff-service/internal/domain"
	"freight-tariff-service/internal/platform/httpx"
	"freight-tariff-service/internal/platform/obs"
	"freight-tariff-service/internal/ports"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultORSBaseURL = "https://api.openrouteservice.org"

// ORSDistanceProvider implements DistanceProvider using OpenRouteService.
//
// Resolved distances are read from and written to an optional persistent
// cache. Cache failures are logged and never fail the lookup.
//
// The provider is safe for concurrent use.
type ORSDistanceProvider struct {
	http    *httpx.Retrier
	apiKey  string
	baseURL string
	profile string
	cache   ports.DistanceCache
	log     *slog.Logger
}

func NewORSDistanceProvider(
	apiKey string,
	baseURL string,
	cache ports.DistanceCache,
	log *slog.Logger,
) (*ORSDistanceProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if baseURL == "" {
		baseURL = defaultORSBaseURL
	}
	if log == nil {
		log = slog.Default()
	}

	return &ORSDistanceProvider{
		http:    httpx.NewRetrier(10 * time.Second),
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: "driving-hgv",
		cache:   cache,
		log:     log,
	}, nil
}

func (o *ORSDistanceProvider) DistanceKm(
	ctx context.Context,
	from domain.Coordinates,
	to domain.Coordinates,
) (_ decimal.Decimal, err error) {
	defer obs.Time(ctx, "ors.DistanceKm")(&err)

	if from == to {
		return decimal.Zero, nil
	}

	// Check persistent distance cache before issuing external API calls.
	if o.cache != nil {
		km, ok, err := o.cache.Get(ctx, from, to)
		if err != nil {
			o.log.WarnContext(ctx, "distance cache read failed", "error", err)
		} else if ok {
			return km, nil
		}
	}

	row, err := o.fetchMatrixRow(ctx, from, []domain.Coordinates{to})
	if err != nil {
		return decimal.Zero, fmt.Errorf("ORS distance %s -> %s: %w", from.Key(), to.Key(), err)
	}
	km := row[0]

	if o.cache != nil {
		if err := o.cache.Put(ctx, from, to, km); err != nil {
			o.log.WarnContext(ctx, "distance cache write failed", "error", err)
		}
	}

	return km, nil
}
