package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"formrelay/backend/internal/repository"
)

func newMigrateCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}

			pool, err := initDatabase(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			dir := repository.Up
			if args[0] == "down" {
				dir = repository.Down
			}
			if err := repository.Migrate(pool, dir); err != nil {
				return fmt.Errorf("migrate %s: %w", args[0], err)
			}
			logger.Info("Migrations applied", "direction", args[0])
			return nil
		},
	}
}
