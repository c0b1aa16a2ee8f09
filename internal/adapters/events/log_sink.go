package events

import (
	"context"
	"freight-tariff-service/internal/domain"
	"log/slog"
)

// LogSink writes tracking events to the structured log. It is the sink
// used when no broker is configured.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) *LogSink {
	if log == nil {
		log = slog.Default()
	}
	return &LogSink{log: log}
}

func (s *LogSink) Publish(ctx context.Context, ev domain.TrackingEvent) error {
	attrs := []any{
		"shipment_id", ev.ShipmentID,
		"cargo_id", ev.CargoID,
		"state", ev.State,
		"location", ev.Location,
		"occurred_at", ev.OccurredAt,
	}
	if ev.LegID != nil {
		attrs = append(attrs, "leg_id", *ev.LegID)
	}
	s.log.InfoContext(ctx, ev.Description, attrs...)
	return nil
}
