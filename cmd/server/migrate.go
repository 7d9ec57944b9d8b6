package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oncology-insights-server/internal/database"
	"github.com/oncology-insights-server/internal/domain"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closer, err := bootstrap()
			if err != nil {
				return err
			}
			defer closer.Close()
			return runMigrations(cmd.Context(), cfg, logger)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default one step)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				steps = n
			}

			cfg, logger, closer, err := bootstrap()
			if err != nil {
				return err
			}
			defer closer.Close()

			runner, err := newMigrationRunner(cfg, logger)
			if err != nil {
				return err
			}
			defer runner.Close()
			return runner.Down(cmd.Context(), steps)
		},
	})

	return cmd
}

func runMigrations(ctx context.Context, cfg *domain.Config, logger *logrus.Logger) error {
	runner, err := newMigrationRunner(cfg, logger)
	if err != nil {
		return err
	}
	defer runner.Close()
	return runner.Up(ctx)
}

func newMigrationRunner(cfg *domain.Config, logger *logrus.Logger) (*database.MigrationRunner, error) {
	url := database.ConfigFromDomain(cfg.Database).URL()
	return database.NewMigrationRunner(url, cfg.Database.MigrationsPath, logger)
}
