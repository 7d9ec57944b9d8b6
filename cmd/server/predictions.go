package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/oncology-insights-server/internal/audit"
	"github.com/oncology-insights-server/internal/database"
)

func newPredictionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predictions",
		Short: "Inspect the prediction audit trail",
	}

	var output string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write every audited prediction as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closer, err := bootstrap()
			if err != nil {
				return err
			}
			defer closer.Close()

			store, err := audit.NewPostgresStoreFromURL(database.ConfigFromDomain(cfg.Database).URL())
			if err != nil {
				return err
			}
			defer store.Close()

			if output == "" || output == "-" {
				return store.ExportJSON(cmd.Context(), cmd.OutOrStdout())
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := audit.ExportTo(cmd.Context(), store, f); err != nil {
				return err
			}
			logger.WithField("path", output).Info("Predictions exported")
			return nil
		},
	}
	export.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")

	cmd.AddCommand(export)
	return cmd
}
