package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// HealthHandler serves liveness and readiness probes. Postgres is a hard
// dependency; Redis going down only degrades booking (locks fail closed), so
// it reports degraded rather than error on its own.
type HealthHandler struct {
	pgPool  *pgxpool.Pool
	redis   *redis.Client
	env     string
	version string
}

func NewHealthHandler(pgPool *pgxpool.Pool, redis *redis.Client, env, version string) *HealthHandler {
	return &HealthHandler{
		pgPool:  pgPool,
		redis:   redis,
		env:     env,
		version: version,
	}
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version,omitempty"`
	Env          string            `json:"env,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
		Env:     h.env,
	})
}

type dependencyProbe struct {
	name     string
	required bool
	ping     func(ctx context.Context) error
}

func (h *HealthHandler) probes() []dependencyProbe {
	return []dependencyProbe{
		{
			name:     "postgres",
			required: true,
			ping:     h.pgPool.Ping,
		},
		{
			name: "redis",
			ping: func(ctx context.Context) error {
				return h.redis.Ping(ctx).Err()
			},
		},
	}
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	deps := make(map[string]string)
	status := "ok"

	for _, probe := range h.probes() {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		err := probe.ping(ctx)
		cancel()

		if err == nil {
			deps[probe.name] = "ok"
			continue
		}

		deps[probe.name] = "down"
		if probe.required || status != "ok" {
			status = "error"
		} else {
			status = "degraded"
		}
	}

	httpStatus := http.StatusOK
	if status == "error" {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:       status,
		Version:      h.version,
		Env:          h.env,
		Dependencies: deps,
	})
}
