package health

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Pinger is the slice of the database pool the readiness probe needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves liveness and readiness probes.
type Handler struct {
	db Pinger
}

// NewHandler creates a new health handler.
func NewHandler(db Pinger) *Handler {
	return &Handler{db: db}
}

// Live handles GET /health.
func (h *Handler) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /health/ready. A store failure degrades the response body
// but still answers 200, so orchestrators see the process itself is up.
func (h *Handler) Ready(c echo.Context) error {
	if err := h.db.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusOK, map[string]string{"status": "error", "database": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "database": "ok"})
}
