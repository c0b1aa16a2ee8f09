package events

import (
	"context"
	"fmt"
	"freight-tariff-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PgSink appends tracking events to the tracking_events history table.
type PgSink struct {
	db db
}

func NewPgSink(db db) *PgSink {
	return &PgSink{db: db}
}

func (s *PgSink) Publish(ctx context.Context, ev domain.TrackingEvent) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO tracking_events (shipment_id, cargo_id, leg_id, state, location, description, occurred_at)
		VALUES (@shipment_id, @cargo_id, @leg_id, @state, @location, @description, @occurred_at)`,
		pgx.NamedArgs{
			"shipment_id": ev.ShipmentID,
			"cargo_id":    ev.CargoID,
			"leg_id":      ev.LegID,
			"state":       ev.State,
			"location":    ev.Location,
			"description": ev.Description,
			"occurred_at": ev.OccurredAt,
		})
	if err != nil {
		return fmt.Errorf("pg sink: insert event for shipment %s: %w", ev.ShipmentID, err)
	}
	return nil
}
