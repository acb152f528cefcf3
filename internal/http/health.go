package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/database"
)

const healthPingTimeout = 2 * time.Second

// Pinger is a dependency the health endpoint checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// HealthController reports whether the store answers. It is mounted outside
// authentication.
type HealthController struct {
	store   Pinger
	version string
}

func NewHealthController(db *database.Database, version string) *HealthController {
	h := &HealthController{version: version}
	if db != nil {
		h.store = db
	}
	return h
}

// Status handles GET /health. 503 when the store does not answer a ping.
func (h *HealthController) Status(c *gin.Context) {
	dbState, ok := h.pingStore(c.Request.Context())

	resp := HealthResponse{
		Status:  "healthy",
		Time:    time.Now().UTC().Format(time.RFC3339),
		Version: h.version,
		Checks:  map[string]string{"database": dbState},
	}
	code := http.StatusOK
	if !ok {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

func (h *HealthController) pingStore(ctx context.Context) (string, bool) {
	if h.store == nil {
		return "not configured", true
	}
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		return "error: " + err.Error(), false
	}
	return "ok", true
}
