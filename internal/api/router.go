package api

import (
	"freight-tariff-service/internal/api/handlers"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Services are the dependencies the HTTP layer calls into.
type Services struct {
	Shipments handlers.ShipmentService
	Legs      handlers.LegReader
	Lifecycle handlers.LegLifecycle
	Quotes    handlers.QuoteCalculator
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(svc Services, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}

	shipments := &handlers.ShipmentHandler{Service: svc.Shipments}
	legs := &handlers.LegHandler{Reader: svc.Legs, Lifecycle: svc.Lifecycle}
	quotes := &handlers.QuoteHandler{Costs: svc.Quotes}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", handlers.Health)

	r.Route("/shipments", func(r chi.Router) {
		r.Post("/", shipments.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", shipments.Get)
			r.Post("/cancel", shipments.Cancel)
			r.Get("/routes/tentative", shipments.TentativeRoutes)
			r.Post("/route", shipments.AssignRoute)
			r.Get("/route", shipments.GetRoute)
			r.Post("/route/price", shipments.PriceRoute)
		})
	})

	r.Route("/legs/{id}", func(r chi.Router) {
		r.Get("/", legs.Get)
		r.Post("/assign", legs.Assign)
		r.Post("/start", legs.Start)
		r.Post("/finish", legs.Finish)
	})

	r.Route("/quotes", func(r chi.Router) {
		r.Post("/confirmed", quotes.Confirmed)
		r.Post("/approximate", quotes.Approximate)
	})

	return r
}
