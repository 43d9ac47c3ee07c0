package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"formrelay/backend/internal/config"
	"formrelay/backend/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loader reads configuration and builds the logger for a subcommand.
type loader func() (*config.Config, *logging.Logger, error)

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:          "formrelay",
		Short:        "Form logic and webhook delivery service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: ./config.yaml or ./config/config.yaml)")

	load := func() (*config.Config, *logging.Logger, error) {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return nil, nil, fmt.Errorf("configuration loading failed: %w", err)
		}
		return cfg, logging.NewLogger(cfg.Log.Level), nil
	}

	root.AddCommand(newServeCmd(load), newMigrateCmd(load))
	return root
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*pgxpool.Pool, error) {
	logger.Debug("Initializing database connection", "host", cfg.DB.Host, "database", cfg.DB.Name)

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
