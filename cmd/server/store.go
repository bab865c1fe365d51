package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/tasks/internal/config"
	"github.com/fastygo/tasks/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/tasks/internal/infrastructure/postgres"
	sqliteInfra "github.com/fastygo/tasks/internal/infrastructure/sqlite"
	"github.com/fastygo/tasks/internal/services/lifecycle"
	"github.com/fastygo/tasks/repository"
	"github.com/fastygo/tasks/repository/memory"
	"github.com/fastygo/tasks/repository/postgres"
	"github.com/fastygo/tasks/repository/sqlite"
)

// store is an opened task repository plus the probe the monitor uses for it.
type store struct {
	tasks repository.TaskRepository
	probe monitor.Probe
}

func migrate(cfg *config.Config, logger *zap.Logger) error {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		return pgInfra.RunMigrations(cfg.Database.URL, logger)
	case config.DriverSQLite:
		return sqliteInfra.RunMigrations(cfg.Database.SQLitePath, logger)
	default:
		logger.Info("no migrations for driver", zap.String("driver", cfg.Database.Driver))
		return nil
	}
}

// openStore connects the configured driver and registers its release with manager.
func openStore(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, logger *zap.Logger) (*store, error) {
	if cfg.Migrations.Enabled {
		if err := migrate(cfg, logger); err != nil {
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
	}

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("postgres connection failed: %w", err)
		}
		manager.Register("postgres", func(context.Context) error {
			pool.Close()
			return nil
		})
		return &store{tasks: postgres.NewTaskRepository(pool), probe: pool.Ping}, nil

	case config.DriverSQLite:
		db, err := sqliteInfra.Open(ctx, cfg.Database.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("sqlite open failed: %w", err)
		}
		manager.RegisterCloser("sqlite", db.Close)
		return &store{tasks: sqlite.NewTaskRepository(db), probe: db.PingContext}, nil

	default:
		logger.Warn("using in-memory task store; data is lost on exit")
		return &store{tasks: memory.NewTaskRepository()}, nil
	}
}
