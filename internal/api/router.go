package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clinicware/clinic-booking/internal/clinic"
)

type RouterConfig struct {
	Service     *clinic.Service
	Logger      *zap.Logger
	PgPool      *pgxpool.Pool
	Redis       *redis.Client
	Env         string
	Version     string
	MaxRequests int
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if cfg.MaxRequests > 0 {
		r.Use(httprate.LimitByIP(cfg.MaxRequests, time.Second))
	}
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Appointment endpoints; update and delete address the record through
	// the appointmentId query parameter.
	r.Get("/appointments", listAppointmentsHandler(cfg.Service))
	r.Post("/appointments", createAppointmentHandler(cfg.Service))
	r.Put("/appointments", updateAppointmentHandler(cfg.Service))
	r.Delete("/appointments", deleteAppointmentHandler(cfg.Service))

	// Directory and availability endpoints
	r.Get("/patients", listPatientsHandler(cfg.Service))
	r.Get("/practitioners", listPractitionersHandler(cfg.Service))
	r.Get("/availabilities", listAvailabilitiesHandler(cfg.Service))

	return r
}
