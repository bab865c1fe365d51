package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasks/api/transport"
	"github.com/fastygo/tasks/internal/infrastructure/monitor"
	"github.com/fastygo/tasks/pkg/httpcontext"
)

type HealthHandler struct {
	baseHandler
	monitor *monitor.Monitor
}

func NewHealthHandler(mon *monitor.Monitor, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

// Root answers the plain liveness probe.
func (h *HealthHandler) Root(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("text/plain; charset=utf-8")
	ctx.SetStatusCode(http.StatusOK)
	ctx.SetBodyString("OK")
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	resp := transport.HealthResponse{
		Status:     "ok",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: map[string]bool{},
	}
	if h.monitor != nil {
		status := h.monitor.Status()
		resp.Components = status.Components
		if !status.Healthy() {
			resp.Status = "degraded"
			h.respondJSON(ctx, http.StatusServiceUnavailable, resp)
			return
		}
	}
	h.respondJSON(ctx, http.StatusOK, resp)
}
