package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/careconnect/scheduling/internal/booking"
)

type RouterConfig struct {
	Service  *booking.Service
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Location *time.Location
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Availability and booking endpoints
	r.Get("/doctors/{id}/availability", getAvailabilityHandler(cfg.Service, cfg.Location))
	r.Post("/bookings", bookSlotHandler(cfg.Service, cfg.Location))
	r.Get("/bookings/{id}", getReservationHandler(cfg.Service))
	r.Post("/bookings/{id}/cancel", cancelReservationHandler(cfg.Service))

	return r
}
