package handlers

import (
	"freight-tariff-service/internal/api/dto"
	"freight-tariff-service/internal/domain"
	"freight-tariff-service/internal/services"

	"github.com/google/uuid"
)

func toLocation(l domain.Location) dto.Location {
	return dto.Location{Address: l.Address, Lat: l.Lat, Lon: l.Lon}
}

func fromLocation(l dto.Location) domain.Location {
	return domain.Location{Address: l.Address, Coordinates: domain.Coordinates{Lat: l.Lat, Lon: l.Lon}}
}

func toShipmentResponse(s domain.Shipment) dto.ShipmentResponse {
	cargoID := s.Cargo.ID
	return dto.ShipmentResponse{
		ID:          s.ID,
		Number:      s.Number,
		ClientID:    s.ClientID,
		Status:      string(s.Status),
		Origin:      toLocation(s.Origin),
		Destination: toLocation(s.Destination),
		Cargo: dto.Cargo{
			ID:          &cargoID,
			WeightKg:    s.Cargo.WeightKg,
			VolumeM3:    s.Cargo.VolumeM3,
			Description: s.Cargo.Description,
		},
		EstimatedCost:  s.EstimatedCost,
		ConfirmedCost:  s.ConfirmedCost,
		SettledCost:    s.SettledCost,
		EstimatedHours: s.EstimatedHours,
		RealHours:      s.RealHours,
		RequestedAt:    s.RequestedAt,
		CompletedAt:    s.CompletedAt,
	}
}

func toLegResponse(l domain.Leg) dto.LegResponse {
	return dto.LegResponse{
		ID:             l.ID,
		RouteID:        l.RouteID,
		Ordinal:        l.Ordinal,
		Type:           string(l.Type),
		State:          string(l.State),
		Origin:         toLocation(l.Origin),
		Destination:    toLocation(l.Destination),
		DistanceKm:     l.DistanceKm,
		EstimatedCost:  l.EstimatedCost,
		EstimatedHours: l.EstimatedHours,
		RealCost:       l.RealCost,
		DwellDays:      l.DwellDays,
		VehicleID:      l.VehicleID,
		CarrierID:      l.CarrierID,
		StartedAt:      l.StartedAt,
		FinishedAt:     l.FinishedAt,
	}
}

func toRouteResponse(r domain.Route) dto.RouteResponse {
	res := dto.RouteResponse{
		ID:              r.ID,
		ShipmentID:      r.ShipmentID,
		Description:     r.Description,
		TotalLegs:       r.TotalLegs,
		TotalDepots:     r.TotalDepots,
		TotalDistanceKm: r.TotalDistanceKm,
		EstimatedCost:   r.EstimatedCost,
		EstimatedHours:  r.EstimatedHours,
		ConfirmedCost:   r.ConfirmedCost,
		Legs:            make([]dto.LegResponse, 0, len(r.Legs)),
	}
	for _, l := range r.Legs {
		res.Legs = append(res.Legs, toLegResponse(l))
	}
	return res
}

func toCandidatesResponse(cs []services.RouteCandidate) dto.ListCandidatesResponse {
	res := dto.ListCandidatesResponse{Candidates: make([]dto.CandidateResponse, 0, len(cs))}
	for _, c := range cs {
		legs := make([]dto.CandidateLegResponse, 0, len(c.Legs))
		for _, l := range c.Legs {
			legs = append(legs, dto.CandidateLegResponse{
				Ordinal:        l.Ordinal,
				Type:           string(l.Type),
				Origin:         toLocation(l.Origin),
				Destination:    toLocation(l.Destination),
				DistanceKm:     l.DistanceKm,
				EstimatedCost:  l.EstimatedCost,
				EstimatedHours: l.EstimatedHours,
			})
		}
		res.Candidates = append(res.Candidates, dto.CandidateResponse{
			Index:            c.Index,
			Description:      c.Description,
			CargoFactor:      c.CargoFactor,
			TotalDistanceKm:  c.TotalDistanceKm,
			EstimatedCost:    c.EstimatedCost,
			EstimatedHours:   c.EstimatedHours,
			FleetAverageCost: c.FleetAverageCost,
			Legs:             legs,
		})
	}
	return res
}

func toBreakdownResponse(b services.CostBreakdown) dto.CostBreakdownResponse {
	res := dto.CostBreakdownResponse{
		TariffID:      b.TariffID,
		RatePerKm:     b.RatePerKm,
		ManagementFee: b.ManagementFee,
		DistanceCost:  b.DistanceCost,
		FuelCost:      b.FuelCost,
		DwellCost:     b.DwellCost,
		Total:         b.Total,
		Legs:          make([]dto.LegCostResponse, 0, len(b.Legs)),
	}
	for _, l := range b.Legs {
		lc := dto.LegCostResponse{
			Type:         string(l.Type),
			DistanceCost: l.DistanceCost,
			FuelCost:     l.FuelCost,
			DwellCost:    l.DwellCost,
			Total:        l.Total,
		}
		if l.LegID != uuid.Nil {
			id := l.LegID
			lc.LegID = &id
		}
		res.Legs = append(res.Legs, lc)
	}
	return res
}

func toApproximationResponse(a services.Approximation) dto.ApproximationResponse {
	res := dto.ApproximationResponse{
		Average:  a.Average,
		Vehicles: make([]dto.VehicleCostResponse, 0, len(a.Vehicles)),
	}
	for _, v := range a.Vehicles {
		res.Vehicles = append(res.Vehicles, dto.VehicleCostResponse{VehicleID: v.VehicleID, Total: v.Total})
	}
	return res
}
