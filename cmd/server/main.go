package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oncology-insights-server/internal/config"
	"github.com/oncology-insights-server/internal/domain"
	"github.com/oncology-insights-server/internal/logging"
)

var configFile string

func main() {
	root := &cobra.Command{
		Use:           "oncology-server",
		Short:         "Oncology insights HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to config file (default: search ./config.yaml)")

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newSeedCommand(),
		newPredictionsCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// bootstrap loads and validates configuration and builds the logger
func bootstrap() (*domain.Config, *logrus.Logger, io.Closer, error) {
	manager, err := config.NewManagerFromFile(configFile)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := manager.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	cfg := manager.GetConfig()
	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, closer, nil
}
