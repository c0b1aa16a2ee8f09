package ports

import (
	"context"
	"freight-tariff-service/internal/domain"
)

// Destination for shipment status history entries.
type TrackingSink interface {
	Publish(ctx context.Context, ev domain.TrackingEvent) error
}

// Fire-and-forget emission used by services after a state change commits.
// Implementations must not block the caller or report failures to it.
type TrackingNotifier interface {
	Notify(ev domain.TrackingEvent)
}
