package router

import (
	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/tasks/api/handler"
	"github.com/fastygo/tasks/internal/metrics"
	"github.com/fastygo/tasks/internal/middleware"
)

type Handlers struct {
	Task   *apiHandler.TaskHandler
	Health *apiHandler.HealthHandler
}

// New builds the route table and wraps it with CORS and access logging.
// A nil metrics value disables /metrics.
func New(handlers Handlers, m *metrics.Metrics, logger *zap.Logger) fasthttp.RequestHandler {
	r := router.New()
	r.SaveMatchedRoutePath = true

	r.GET("/", handlers.Health.Root)
	r.GET("/health", handlers.Health.Check)
	if m != nil {
		r.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(
			promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}),
		))
	}

	api := r.Group("/api")
	api.GET("/tasks", handlers.Task.ListTasks)
	api.POST("/tasks", handlers.Task.CreateTask)
	api.GET("/tasks/stats", handlers.Task.Stats)
	api.GET("/tasks/{id}", handlers.Task.GetTask)
	api.PATCH("/tasks/{id}", handlers.Task.UpdateTask)
	api.PATCH("/tasks/{id}/toggle", handlers.Task.ToggleTask)
	api.DELETE("/tasks/{id}", handlers.Task.DeleteTask)

	return middleware.CORS(middleware.AccessLog(logger, m)(r.Handler))
}
