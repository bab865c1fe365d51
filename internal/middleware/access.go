package middleware

import (
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasks/internal/metrics"
	"github.com/fastygo/tasks/pkg/httpcontext"
)

// AccessLog logs one line per request and feeds the request metrics.
func AccessLog(logger *zap.Logger, m *metrics.Metrics) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			started := time.Now()
			reqID := httpcontext.RequestID(ctx)
			ctx.Response.Header.Set(httpcontext.HeaderRequestID, reqID)

			next(ctx)

			elapsed := time.Since(started)
			status := ctx.Response.StatusCode()
			method := string(ctx.Method())
			m.ObserveRequest(method, routeOf(ctx), status, elapsed)

			fields := []zap.Field{
				zap.String("request_id", reqID),
				zap.String("method", method),
				zap.ByteString("path", ctx.Path()),
				zap.Int("status", status),
				zap.Duration("duration", elapsed),
			}
			if status >= fasthttp.StatusInternalServerError {
				logger.Error("request", fields...)
				return
			}
			logger.Info("request", fields...)
		}
	}
}

func routeOf(ctx *fasthttp.RequestCtx) string {
	if route, ok := ctx.UserValue(router.MatchedRoutePathParam).(string); ok && route != "" {
		return route
	}
	return "unmatched"
}
