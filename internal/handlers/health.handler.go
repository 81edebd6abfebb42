package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/classroom-points/internal/services"
	xhttp "github.com/nimasrn/classroom-points/pkg/http"
)

type HealthService interface {
	Check(ctx context.Context) services.HealthStatus
}

type HealthHandler struct {
	svc HealthService
}

func RegisterHealthRoutes(e *router.Group, h *HealthHandler) {
	e.GET("/health", h.GetHealth)
}

func NewHealthHandler(healthService HealthService) *HealthHandler {
	return &HealthHandler{
		svc: healthService,
	}
}

func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	status := h.svc.Check(ctx)
	if !status.Healthy() {
		writeJSON(ctx, xhttp.StatusServiceUnavailable, status)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, status)
}
