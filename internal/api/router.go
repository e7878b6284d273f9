package api

import (
	"log/slog"
	"net/http"

	"dispatch/internal/api/middleware"

	"github.com/go-chi/chi/v5"
	ChiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func newBaseRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(ChiMiddleware.RequestID)
	r.Use(ChiMiddleware.Logger)
	r.Use(ChiMiddleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// NewProducerRouter serves the shipment intake API.
func NewProducerRouter(h *Handlers, redisClient *redis.Client, logger *slog.Logger) http.Handler {
	r := newBaseRouter()

	r.Route("/api/shipments", func(r chi.Router) {
		r.Get("/health", Health)
		if redisClient != nil {
			r.With(middleware.Idempotency(redisClient, logger)).Post("/", h.SubmitShipment)
		} else {
			r.Post("/", h.SubmitShipment)
		}
	})

	return r
}

// NewConsumerRouter serves reconciled records and the health probe.
func NewConsumerRouter(h *Handlers) http.Handler {
	r := newBaseRouter()

	r.Get("/api/health", Health)
	r.Get("/api/shipments/{shipmentId}", h.GetShipment)

	return r
}
