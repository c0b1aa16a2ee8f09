package distance

import (
	"context"
	"fmt"
	"freight-tariff-service/internal/domain"
	"freight-tariff-service/internal/ports"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// FallbackProvider asks the primary provider for a road distance under a
// bounded timeout and falls back to the haversine distance on any failure.
// It never returns an error for valid coordinates.
//
// Concurrent lookups of the same pair share one primary call.
type FallbackProvider struct {
	primary ports.DistanceProvider
	timeout time.Duration
	log     *slog.Logger
	group   singleflight.Group
}

// NewFallbackProvider wraps primary. A nil primary yields a haversine-only provider.
func NewFallbackProvider(primary ports.DistanceProvider, timeout time.Duration, log *slog.Logger) *FallbackProvider {
	if log == nil {
		log = slog.Default()
	}
	return &FallbackProvider{primary: primary, timeout: timeout, log: log}
}

func (p *FallbackProvider) DistanceKm(ctx context.Context, from, to domain.Coordinates) (decimal.Decimal, error) {
	if err := from.Validate(); err != nil {
		return decimal.Zero, fmt.Errorf("distance: origin: %w", err)
	}
	if err := to.Validate(); err != nil {
		return decimal.Zero, fmt.Errorf("distance: destination: %w", err)
	}

	if p.primary == nil {
		return HaversineKm(from, to), nil
	}

	// The shared lookup outlives any one caller's cancellation; it is
	// bounded by p.timeout alone.
	shared := context.WithoutCancel(ctx)
	v, _, _ := p.group.Do(from.Key()+"|"+to.Key(), func() (any, error) {
		return p.lookup(shared, from, to), nil
	})
	return v.(decimal.Decimal), nil
}

func (p *FallbackProvider) lookup(ctx context.Context, from, to domain.Coordinates) decimal.Decimal {
	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	km, err := p.primary.DistanceKm(cctx, from, to)
	if err == nil && km.IsNegative() {
		err = fmt.Errorf("negative distance %s", km)
	}
	if err != nil {
		fallback := HaversineKm(from, to)
		p.log.WarnContext(ctx, "distance lookup failed, using haversine",
			"from", from.Key(),
			"to", to.Key(),
			"haversine_km", fallback.String(),
			"error", err,
		)
		return fallback
	}
	return domain.Round2(km)
}
