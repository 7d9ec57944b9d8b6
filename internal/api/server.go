package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oncology-insights-server/internal/domain"
	"github.com/oncology-insights-server/internal/logging"
	"github.com/oncology-insights-server/internal/metrics"
	"github.com/oncology-insights-server/internal/middleware"
	"github.com/oncology-insights-server/internal/service"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// shutdownTimeout bounds the graceful shutdown of the listener
const shutdownTimeout = 30 * time.Second

// PredictionHistory reads the prediction audit trail of a patient
type PredictionHistory interface {
	ListByPatient(ctx context.Context, patientID int64, limit int) ([]*domain.PredictionRecord, error)
}

// HealthCheck probes one backing dependency
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Dependencies are the collaborators served by the HTTP API
type Dependencies struct {
	CancerTypes domain.CancerTypeRepository
	Patients    domain.PatientRepository
	Treatments  domain.TreatmentRepository
	Outcomes    domain.OutcomeRepository
	Survival    domain.SurvivalRepository
	Images      domain.ImageRepository
	Statistics  domain.StatisticsRepository
	Dashboard   domain.DashboardRepository
	Predictions PredictionHistory

	Predictor *service.PredictionService
	Cohorts   *service.CohortExplorer

	HealthChecks []HealthCheck
	Metrics      *metrics.Manager
	Logger       *logrus.Logger
}

// Server represents the HTTP server
type Server struct {
	config *domain.Config
	deps   Dependencies
	logger *logrus.Logger
	router *gin.Engine
	server *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(config *domain.Config, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}

	// Set Gin mode based on environment
	if config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SecurityHeaders())
	router.Use(corsMiddleware())
	router.Use(middleware.AccessLogger(deps.Logger))
	router.Use(middleware.Metrics(deps.Metrics))
	router.Use(middleware.RequestTimeout(config.Server.RequestTimeout))

	s := &Server{
		config: config,
		deps:   deps,
		logger: deps.Logger,
		router: router,
	}
	s.setupRoutes()

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	cfg := s.config.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithFields(logrus.Fields{"addr": addr, "tls": cfg.TLSEnabled}).Info("HTTP server listening")

		var err error
		if cfg.TLSEnabled {
			err = s.server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	if s.config.Metrics.Enabled {
		path := s.config.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		s.router.GET(path, gin.WrapH(s.deps.Metrics.Handler()))
	}

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/cancer-types", s.handleListCancerTypes)
		v1.POST("/cancer-types", s.handleCreateCancerType)
		v1.GET("/cancer-types/:id", s.handleGetCancerType)

		v1.GET("/dashboard/stats", s.handleDashboardStats)
		v1.GET("/dashboard/treatment-outcomes", s.handleOutcomeDistribution)

		v1.GET("/statistics", s.handleListStatistics)
		v1.POST("/statistics", s.handleCreateStatistic)

		cbio := v1.Group("/cbioportal")
		{
			cbio.GET("/cancer-types", s.handleCBioCancerTypes)
			cbio.GET("/cancer-types/:id", s.handleCBioCancerTypeDetails)
			cbio.GET("/studies", s.handleCBioStudies)
			cbio.GET("/studies/:id/clinical-data", s.handleCBioClinicalData)
			cbio.GET("/studies/:id/patients", s.handleCBioPatients)
			cbio.GET("/stats", s.handleCBioStats)
		}
	}

	// patient level data and scoring sit behind the API key guard
	protected := v1.Group("", middleware.APIKeyAuth(s.config.Auth.APIKeys))
	{
		protected.GET("/patients", s.handleListPatients)
		protected.POST("/patients", s.handleCreatePatient)
		protected.GET("/patients/:id", s.handleGetPatient)
		protected.GET("/patients/:id/treatments", s.handleListTreatments)
		protected.POST("/patients/:id/treatments", s.handleCreateTreatment)
		protected.GET("/patients/:id/outcomes", s.handleListOutcomes)
		protected.POST("/patients/:id/outcomes", s.handleCreateOutcome)
		protected.GET("/patients/:id/survival", s.handleGetSurvival)
		protected.POST("/patients/:id/survival", s.handleCreateSurvival)
		protected.GET("/patients/:id/images", s.handleListImages)
		protected.POST("/patients/:id/images", s.handleCreateImage)
		protected.GET("/patients/:id/predictions", s.handleListPredictions)

		protected.POST("/predictions/survival", s.handlePredictSurvival)
		protected.POST("/predictions/drug-response", s.handlePredictDrugResponse)
	}
}

// handleHealth reports the status of every registered dependency
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	checks := make(gin.H, len(s.deps.HealthChecks))
	for _, hc := range s.deps.HealthChecks {
		if err := hc.Check(ctx); err != nil {
			checks[hc.Name] = gin.H{"status": "unhealthy", "error": err.Error()}
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		checks[hc.Name] = gin.H{"status": "healthy"}
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"version":   Version,
		"checks":    checks,
	})
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-API-Key, X-Correlation-ID")
		c.Header("Access-Control-Expose-Headers", "X-Correlation-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
