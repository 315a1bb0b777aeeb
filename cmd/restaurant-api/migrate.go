package main

import (
	"errors"

	"github.com/spf13/cobra"

	"restaurant-api/internal/infrastructure/repo"
	"restaurant-api/internal/logger"
)

func newMigrateCmd(load loader) *cobra.Command {
	var driver string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded SQL migrations to the configured Postgres database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("driver") {
				cfg.DBDriver = driver
			}
			if cfg.DatabaseURL == "" {
				return errors.New("RESTAURANT_DATABASE_URL is not set")
			}
			log := logger.New(serviceName, cfg.LogJSON, cfg.LogLevel)

			pg, err := repo.OpenPostgres(cmd.Context(), cfg.DBDriver, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pg.Close()
			applied, err := pg.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range applied {
				log.Info("migration applied", "action", "migration_applied", "name", name)
			}
			log.Info("database up to date", "action", "migrate_done", "applied", len(applied))
			return nil
		},
	}
	cmd.Flags().StringVar(&driver, "driver", repo.DriverPQ, "database/sql driver: postgres (lib/pq) or pgx")
	return cmd
}
