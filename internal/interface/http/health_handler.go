package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/resident-registration/pkg/response"
)

// Pinger is satisfied by repository.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	Store   Pinger
	Timeout time.Duration
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{Store: store, Timeout: 2 * time.Second}
}

// Health handles GET /healthz.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		response.Error[any](c, http.StatusServiceUnavailable, "store unreachable", response.ErrorBody{Kind: "unavailable"})
		return
	}
	response.Success(c, http.StatusOK, gin.H{"store": "ok"}, "healthy", nil)
}
