package tariffs

import (
	"context"
	"fmt"
	"freight-tariff-service/internal/domain"
	"sync"
)

// StaticCatalog serves tariffs held in memory. It backs the server when no
// database is configured and stands in for Postgres in tests.
type StaticCatalog struct {
	mu      sync.RWMutex
	tariffs []domain.Tariff
	nextID  int64
}

func NewStaticCatalog(tariffs ...domain.Tariff) *StaticCatalog {
	c := &StaticCatalog{}
	for _, t := range tariffs {
		c.Add(t)
	}
	return c
}

// Add appends a tariff, assigning an id when it has none.
func (c *StaticCatalog) Add(t domain.Tariff) domain.Tariff {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	if t.ID == 0 {
		t.ID = c.nextID
	}
	if t.ID > c.nextID {
		c.nextID = t.ID
	}
	c.tariffs = append(c.tariffs, t)
	return t
}

func (c *StaticCatalog) latest(legType domain.LegType) (domain.Tariff, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var (
		best  domain.Tariff
		found bool
	)
	for _, t := range c.tariffs {
		if !t.Active || t.LegType != legType {
			continue
		}
		if !found || t.ID > best.ID {
			best, found = t, true
		}
	}
	return best, found
}

func (c *StaticCatalog) ActiveTariff(_ context.Context) (domain.Tariff, error) {
	t, ok := c.latest("")
	if !ok {
		return domain.Tariff{}, fmt.Errorf("active tariff: %w: no active tariff configured", domain.ErrTariffUnavailable)
	}
	return t, nil
}

func (c *StaticCatalog) TariffForLegType(_ context.Context, legType domain.LegType) (domain.Tariff, error) {
	t, ok := c.latest(legType)
	if !ok {
		return domain.Tariff{}, domain.NewNotFound("tariff for leg type", legType)
	}
	return t, nil
}

// Create adds a tariff. It lets fixture seeding target the static catalog.
func (c *StaticCatalog) Create(_ context.Context, t domain.Tariff) (domain.Tariff, error) {
	return c.Add(t), nil
}
