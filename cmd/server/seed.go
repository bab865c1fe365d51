package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/tasks/internal/config"
	"github.com/fastygo/tasks/internal/seed"
	"github.com/fastygo/tasks/internal/services/lifecycle"
	"github.com/fastygo/tasks/query"
	taskUC "github.com/fastygo/tasks/usecase/task"
)

var (
	seedCount int
	seedValue uint64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace all tasks with randomly generated ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedCount <= 0 {
			return fmt.Errorf("--count must be positive")
		}
		cfg, zapLogger, err := loadRuntime()
		if err != nil {
			return err
		}
		if cfg.Database.Driver == config.DriverMemory {
			return fmt.Errorf("seeding the in-memory store has no effect; choose postgres or sqlite")
		}

		manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
		defer manager.Shutdown(context.Background()) //nolint:errcheck

		ctx := cmd.Context()
		st, err := openStore(ctx, cfg, manager, zapLogger)
		if err != nil {
			return err
		}

		value := seedValue
		if value == 0 {
			value = uint64(time.Now().UnixNano())
		}
		tasks := seed.NewGenerator(value, time.Now()).Generate(seedCount)

		uc := taskUC.New(st.tasks, query.CountGlobal, zapLogger)
		if err := uc.Reseed(ctx, tasks); err != nil {
			return err
		}
		zapLogger.Info("seeded tasks", zap.Int("count", len(tasks)))
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d tasks successfully!\n", len(tasks))
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedCount, "count", seed.DefaultCount, "number of tasks to generate")
	seedCmd.Flags().Uint64Var(&seedValue, "seed", 0, "random seed (0 picks one from the clock)")
	rootCmd.AddCommand(seedCmd)
}
