package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oncology-insights-server/internal/api"
	"github.com/oncology-insights-server/internal/audit"
	"github.com/oncology-insights-server/internal/database"
	"github.com/oncology-insights-server/internal/domain"
	"github.com/oncology-insights-server/internal/metrics"
	"github.com/oncology-insights-server/internal/repository"
	"github.com/oncology-insights-server/internal/scoring"
	"github.com/oncology-insights-server/internal/service"
	"github.com/oncology-insights-server/pkg/external"
)

// auditDrainTimeout bounds how long pending audit records are flushed on shutdown
const auditDrainTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closer, err := bootstrap()
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if migrate {
				if err := runMigrations(ctx, cfg, logger); err != nil {
					return err
				}
			}
			return serve(ctx, cfg, logger)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func serve(ctx context.Context, cfg *domain.Config, logger *logrus.Logger) error {
	logger.WithFields(logrus.Fields{
		"host":        cfg.Server.Host,
		"port":        cfg.Server.Port,
		"environment": cfg.Environment,
	}).Info("Starting oncology insights server")

	dbConfig := database.ConfigFromDomain(cfg.Database)
	db, err := database.NewConnection(ctx, dbConfig, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	m := metrics.NewManager(metrics.WithNamespace(cfg.Metrics.Namespace), metrics.WithRuntimeCollectors())

	store, err := audit.NewPostgresStoreFromURL(dbConfig.URL())
	if err != nil {
		return fmt.Errorf("failed to open audit store: %w", err)
	}
	defer store.Close()

	var recorder domain.PredictionRecorder
	if cfg.Audit.Enabled {
		dispatcher := audit.NewDispatcherFromConfig(store, cfg.Audit, audit.WithLogger(logger), audit.WithMetrics(m))
		defer func() {
			drainCtx, cancel := context.WithTimeout(context.Background(), auditDrainTimeout)
			defer cancel()
			if err := dispatcher.Close(drainCtx); err != nil {
				logger.WithError(err).Warn("Audit queue not fully drained")
			}
		}()
		recorder = dispatcher
	}

	cache := newResponseCache(cfg, logger)
	defer cache.Close()

	cbio := cfg.ExternalAPI.CBioPortal
	portal := external.NewResilientCBioPortalClient(
		external.NewCBioPortalClient(cbio),
		cbio,
		external.WithCache(cache, cbio.CacheTTL),
		external.WithLogger(logger),
		external.WithMetrics(m),
	)

	scoringOpts, err := scoring.OptionsFromConfig(cfg.Scoring)
	if err != nil {
		return fmt.Errorf("invalid scoring configuration: %w", err)
	}

	server := api.NewServer(cfg, api.Dependencies{
		CancerTypes: repository.NewCancerTypeRepository(db.Pool, logger),
		Patients:    repository.NewPatientRepository(db.Pool, logger),
		Treatments:  repository.NewTreatmentRepository(db.Pool, logger),
		Outcomes:    repository.NewOutcomeRepository(db.Pool, logger),
		Survival:    repository.NewSurvivalRepository(db.Pool, logger),
		Images:      repository.NewImageRepository(db.Pool, logger),
		Statistics:  repository.NewStatisticsRepository(db.Pool, logger),
		Dashboard:   repository.NewDashboardRepository(db.Pool, logger),
		Predictions: store,
		Predictor:   service.NewPredictionService(scoring.NewScorer(scoringOpts...), recorder, m, logger),
		Cohorts:     service.NewCohortExplorer(portal, logger),
		HealthChecks: []api.HealthCheck{
			{Name: "database", Check: db.Health},
			{Name: "cache", Check: cache.Ping},
		},
		Metrics: m,
		Logger:  logger,
	})

	return server.Start(ctx)
}

// newResponseCache prefers Redis and falls back to the in-process cache
func newResponseCache(cfg *domain.Config, logger *logrus.Logger) external.ResponseCache {
	if cfg.Cache.RedisURL != "" {
		redisCache, err := external.NewRedisCache(cfg.Cache)
		if err == nil {
			return redisCache
		}
		logger.WithError(err).Warn("Redis unavailable, using in-memory cache")
	}
	return external.NewMemoryCache(cfg.Cache.MemoryItems, cfg.ExternalAPI.CBioPortal.CacheTTL)
}
