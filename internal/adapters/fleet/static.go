package fleet

import (
	"context"
	"freight-tariff-service/internal/domain"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// StaticFleet serves a fixed set of vehicles from memory.
type StaticFleet struct {
	mu       sync.RWMutex
	vehicles map[int64]domain.Vehicle
}

func NewStaticFleet(vehicles ...domain.Vehicle) *StaticFleet {
	f := &StaticFleet{vehicles: make(map[int64]domain.Vehicle, len(vehicles))}
	for _, v := range vehicles {
		f.vehicles[v.ID] = v
	}
	return f
}

// Put adds or replaces a vehicle.
func (f *StaticFleet) Put(v domain.Vehicle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vehicles[v.ID] = v
}

func (f *StaticFleet) Vehicle(_ context.Context, id int64) (domain.Vehicle, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	v, ok := f.vehicles[id]
	if !ok {
		return domain.Vehicle{}, domain.NewNotFound("vehicle", id)
	}
	return v, nil
}

func (f *StaticFleet) EligibleVehicles(_ context.Context, weightKg, volumeM3 decimal.Decimal) ([]domain.Vehicle, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	cargo := domain.Cargo{WeightKg: weightKg, VolumeM3: volumeM3}
	var out []domain.Vehicle
	for _, v := range f.vehicles {
		if v.Available && v.Fits(cargo) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *StaticFleet) Upsert(_ context.Context, v domain.Vehicle) error {
	f.Put(v)
	return nil
}
