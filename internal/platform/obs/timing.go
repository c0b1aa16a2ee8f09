package obs

import (
	"context"
	"log/slog"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Time logs the duration of an operation when the returned func runs.
// Use it deferred with a pointer to the named error result:
//
//	defer obs.Time(ctx, "tariffs.ActiveTariff")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	return func(errp *error) {
		attrs := []any{
			"op", name,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
			attrs = append(attrs, "request_id", reqID)
		}

		if errp != nil && *errp != nil {
			slog.WarnContext(ctx, "operation failed", append(attrs, "error", *errp)...)
			return
		}
		slog.DebugContext(ctx, "operation", attrs...)
	}
}
