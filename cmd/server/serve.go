package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/tasks/api/handler"
	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/internal/infrastructure/monitor"
	redisInfra "github.com/fastygo/tasks/internal/infrastructure/redis"
	"github.com/fastygo/tasks/internal/metrics"
	"github.com/fastygo/tasks/internal/router"
	"github.com/fastygo/tasks/internal/services/lifecycle"
	"github.com/fastygo/tasks/pkg/httpcontext"
	"github.com/fastygo/tasks/query"
	redisRepo "github.com/fastygo/tasks/repository/redis"
	taskUC "github.com/fastygo/tasks/usecase/task"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, zapLogger, err := loadRuntime()
		if err != nil {
			return err
		}

		manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
		appCtx, cancel := manager.SignalContext(context.Background())
		defer cancel()

		st, err := openStore(appCtx, cfg, manager, zapLogger)
		if err != nil {
			_ = manager.Shutdown(context.Background())
			return err
		}

		scope, err := query.ParseCountScope(cfg.Query.CountScope)
		if err != nil {
			return err
		}

		var appMetrics *metrics.Metrics
		if cfg.HTTP.EnableMetrics {
			appMetrics = metrics.New()
		}

		mon := monitor.New(cfg.Monitor.Schedule, zapLogger)
		if st.probe != nil {
			mon.Add("database", st.probe)
		}

		opts := []taskUC.Option{taskUC.WithMetrics(appMetrics)}
		if cfg.Redis.CacheEnabled {
			redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
			if err != nil {
				zapLogger.Warn("redis unavailable, page cache disabled", zap.Error(err))
			} else {
				manager.RegisterCloser("redis", redisClient.Close)
				mon.Add("redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
				opts = append(opts, taskUC.WithCache(redisRepo.NewPageCache(redisClient, cfg.Redis.Prefix, cfg.Redis.TTL)))
			}
		}

		if cfg.Monitor.Enabled {
			if err := mon.Start(); err != nil {
				zapLogger.Error("monitor schedule rejected", zap.String("schedule", cfg.Monitor.Schedule), zap.Error(err))
			} else {
				manager.Register("monitor", mon.Stop)
			}
		}

		taskUseCase := taskUC.New(st.tasks, scope, zapLogger, opts...)
		ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)
		limits := domain.QueryLimits{DefaultLimit: cfg.Query.DefaultLimit, MaxLimit: cfg.Query.MaxLimit}

		handler := router.New(router.Handlers{
			Task:   apiHandler.NewTaskHandler(taskUseCase, limits, ctxAdapter, zapLogger),
			Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
		}, appMetrics, zapLogger)

		server := &fasthttp.Server{
			Handler:      handler,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			IdleTimeout:  cfg.HTTP.IdleTimeout,
			Concurrency:  cfg.HTTP.MaxConn,
			Name:         cfg.AppName,
		}
		manager.Register("http_server", func(ctx context.Context) error {
			return server.ShutdownWithContext(ctx)
		})

		serveErr := make(chan error, 1)
		go func() {
			zapLogger.Info("server started",
				zap.String("address", cfg.Address()),
				zap.String("driver", cfg.Database.Driver),
				zap.String("count_scope", string(scope)),
			)
			serveErr <- server.ListenAndServe(cfg.Address())
		}()

		select {
		case <-appCtx.Done():
		case err = <-serveErr:
			zapLogger.Error("server stopped", zap.Error(err))
		}

		shutdownStarted := time.Now()
		if shutdownErr := manager.Shutdown(context.Background()); shutdownErr != nil {
			zapLogger.Error("graceful shutdown error", zap.Error(shutdownErr))
		}
		zapLogger.Info("shutdown complete", zap.Duration("took", time.Since(shutdownStarted)))
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
