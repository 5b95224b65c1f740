package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports whether the service and its stores are reachable.
// Load balancers and monitoring probe it.
type HealthHandler struct {
	DB    *sql.DB
	Redis *redis.Client
}

// Health answers 200 when every configured dependency answers a ping within
// two seconds and 503 otherwise.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := echo.Map{}
	healthy := true
	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			checks["database"] = "down"
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}
	if h.Redis != nil {
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "down"
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}
	if !healthy {
		return failData(c, http.StatusServiceUnavailable, "degraded", checks)
	}
	return ok(c, http.StatusOK, "ok", checks)
}
