package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/tasks/internal/config"
	"github.com/fastygo/tasks/pkg/logger"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "tasks",
	Short:         "Task tracker service and query client",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appLogger != nil {
			_ = appLogger.Sync()
		}
	},
}

var appLogger *zap.Logger

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.SetErr(os.Stderr)
}

// loadRuntime reads configuration and builds the logger shared by every command.
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadFile(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	zapLogger, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Encoding:   cfg.Logger.Encoding,
		File:       cfg.Logger.File,
		MaxSizeMB:  cfg.Logger.MaxSizeMB,
		MaxAgeDays: cfg.Logger.MaxAgeDays,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	appLogger = zapLogger
	return cfg, zapLogger, nil
}
