// Package health exposes liveness and readiness probes.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// Handler answers health probes. Redis is optional; a register running
// without it is still ready, it just loses parked-cart persistence and rate
// sharing.
type Handler struct {
	Redis   *redis.Client
	Version string
}

// Live reports process liveness.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	_ = r
	common.JSON(w, http.StatusOK, map[string]any{"status": "ok", "version": h.Version})
}

// Ready reports whether the service can do useful work. Collaborator
// services are probed lazily per request, not here; a catalog outage should
// not take the register out of rotation.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	status := http.StatusOK

	if h.Redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "down: " + err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks["redis"] = "ok"
		}
	}

	body := map[string]any{"status": "ok", "checks": checks}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	common.JSON(w, status, body)
}
