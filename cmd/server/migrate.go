package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, zapLogger, err := loadRuntime()
		if err != nil {
			return err
		}
		return migrate(cfg, zapLogger)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
