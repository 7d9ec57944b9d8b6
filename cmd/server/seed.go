package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oncology-insights-server/internal/database"
	"github.com/oncology-insights-server/internal/repository"
	"github.com/oncology-insights-server/internal/seed"
)

func newSeedCommand() *cobra.Command {
	var (
		randomSeed int64
		patients   int
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with a synthetic cohort",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closer, err := bootstrap()
			if err != nil {
				return err
			}
			defer closer.Close()

			db, err := database.NewConnection(cmd.Context(), database.ConfigFromDomain(cfg.Database), logger)
			if err != nil {
				return err
			}
			defer db.Close()

			seeder := seed.NewSeeder(seed.Repositories{
				CancerTypes: repository.NewCancerTypeRepository(db.Pool, logger),
				Patients:    repository.NewPatientRepository(db.Pool, logger),
				Treatments:  repository.NewTreatmentRepository(db.Pool, logger),
				Outcomes:    repository.NewOutcomeRepository(db.Pool, logger),
				Survival:    repository.NewSurvivalRepository(db.Pool, logger),
				Statistics:  repository.NewStatisticsRepository(db.Pool, logger),
			}, logger, seed.WithSeed(randomSeed), seed.WithPatientCount(patients))

			summary, err := seeder.Run(cmd.Context())
			if err != nil {
				return err
			}

			logger.WithFields(logrus.Fields{
				"cancer_types": summary.CancerTypes,
				"patients":     summary.Patients,
				"treatments":   summary.Treatments,
				"outcomes":     summary.Outcomes,
				"survival":     summary.Survival,
				"statistics":   summary.Statistics,
			}).Info("Seeding completed")
			return nil
		},
	}
	cmd.Flags().Int64Var(&randomSeed, "seed", seed.DefaultSeed, "random seed")
	cmd.Flags().IntVar(&patients, "patients", seed.DefaultPatients, "number of patients to generate")
	return cmd
}
