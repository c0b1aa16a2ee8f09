// Package events delivers shipment tracking events to their sinks.
package events

import (
	"context"
	"errors"
	"freight-tariff-service/internal/domain"
	"freight-tariff-service/internal/ports"
	"log/slog"
	"sync"
	"time"
)

// Dispatcher implements ports.TrackingNotifier. Each event is published to
// every sink on its own goroutine under its own timeout, detached from the
// request that caused it. Failures are logged and never reach the caller.
type Dispatcher struct {
	sinks   []ports.TrackingSink
	timeout time.Duration
	log     *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(timeout time.Duration, log *slog.Logger, sinks ...ports.TrackingSink) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{sinks: sinks, timeout: timeout, log: log}
}

func (d *Dispatcher) Notify(ev domain.TrackingEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		d.log.Warn("tracking event dropped after shutdown",
			"shipment_id", ev.ShipmentID, "state", ev.State)
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.publish(ev)
	}()
}

func (d *Dispatcher) publish(ev domain.TrackingEvent) {
	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	for _, sink := range d.sinks {
		if err := sink.Publish(ctx, ev); err != nil {
			d.log.Warn("tracking event not delivered",
				"shipment_id", ev.ShipmentID,
				"state", ev.State,
				"error", err)
		}
	}
}

// Close stops accepting events and waits for in-flight ones, or until ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("tracking dispatcher: drain interrupted"), ctx.Err())
	}
}
