package distance

import (
	"context"
	"fmt"
	"freight-tariff-service/internal/domain"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

type MockPair struct {
	From, To domain.Coordinates
	Km       decimal.Decimal
}

// MockDistanceProvider serves fixed distances for known pairs. Err, when set,
// fails every call; Delay holds each call until it elapses or ctx ends.
type MockDistanceProvider struct {
	m     map[string]decimal.Decimal
	Err   error
	Delay time.Duration
	calls atomic.Int64
}

func NewMockDistanceProvider(pairs []MockPair) *MockDistanceProvider {
	m := make(map[string]decimal.Decimal, len(pairs))
	for _, p := range pairs {
		m[p.From.Key()+"|"+p.To.Key()] = p.Km
	}
	return &MockDistanceProvider{m: m}
}

func (p *MockDistanceProvider) DistanceKm(ctx context.Context, from, to domain.Coordinates) (decimal.Decimal, error) {
	p.calls.Add(1)

	if p.Delay > 0 {
		timer := time.NewTimer(p.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return decimal.Zero, ctx.Err()
		case <-timer.C:
		}
	}

	if p.Err != nil {
		return decimal.Zero, p.Err
	}

	km, ok := p.m[from.Key()+"|"+to.Key()]
	if !ok {
		return decimal.Zero, fmt.Errorf("missing pair %s -> %s", from.Key(), to.Key())
	}
	return km, nil
}

// Calls is the number of lookups served so far.
func (p *MockDistanceProvider) Calls() int64 { return p.calls.Load() }
