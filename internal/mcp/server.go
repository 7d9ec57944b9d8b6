// Package mcp provides the standalone MCP tool server. It needs no external
// databases: predictions are audited to SQLite and cBioPortal responses are
// cached in memory.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/oncology-insights-server/internal/audit"
	"github.com/oncology-insights-server/internal/config"
	"github.com/oncology-insights-server/internal/logging"
	"github.com/oncology-insights-server/internal/metrics"
	"github.com/oncology-insights-server/internal/scoring"
	"github.com/oncology-insights-server/internal/service"
	"github.com/oncology-insights-server/pkg/external"
)

// Server identity reported during the MCP handshake
const (
	ServerName    = "oncology-insights"
	ServerVersion = "v1.0.0"
)

// closeTimeout bounds the audit drain on shutdown
const closeTimeout = 10 * time.Second

// LiteServer is the MCP tool server exposing the risk estimators and the
// cBioPortal overview.
type LiteServer struct {
	config     *config.LiteConfig
	mcpServer  *mcp.Server
	store      audit.Store
	dispatcher *audit.Dispatcher
	cache      *external.MemoryCache
	portal     external.CBioPortalAPI
	scorer     *scoring.Scorer
	predictor  *service.PredictionService
	cohorts    *service.CohortExplorer
	metrics    *metrics.Manager
	logger     *logrus.Logger
}

// LiteServerOption is a functional option for LiteServer.
type LiteServerOption func(*LiteServer) error

// WithAuditStore sets a custom audit store.
func WithAuditStore(store audit.Store) LiteServerOption {
	return func(s *LiteServer) error {
		s.store = store
		return nil
	}
}

// WithCBioPortal replaces the upstream cBioPortal client.
func WithCBioPortal(api external.CBioPortalAPI) LiteServerOption {
	return func(s *LiteServer) error {
		s.portal = api
		return nil
	}
}

// WithScorer sets the scorer used by the prediction tools.
func WithScorer(scorer *scoring.Scorer) LiteServerOption {
	return func(s *LiteServer) error {
		s.scorer = scorer
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) LiteServerOption {
	return func(s *LiteServer) error {
		if logger == nil {
			return errors.New("logger is nil")
		}
		s.logger = logger
		return nil
	}
}

// NewLiteServer creates a new standalone MCP server instance.
func NewLiteServer(cfg *config.LiteConfig, opts ...LiteServerOption) (*LiteServer, error) {
	server := &LiteServer{
		config:  cfg,
		metrics: metrics.NewManager(),
	}

	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.logger == nil {
		logger, _, err := logging.New(cfg.Logging())
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		server.logger = logger
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if server.store == nil {
		store, err := audit.NewSQLiteStore(cfg.AuditDBPath())
		if err != nil {
			return nil, fmt.Errorf("failed to create audit store: %w", err)
		}
		server.store = store
	}
	server.dispatcher = audit.NewDispatcher(server.store,
		audit.WithLogger(server.logger),
		audit.WithMetrics(server.metrics),
	)

	server.cache = external.NewMemoryCache(cfg.CacheMaxItems, cfg.CacheTTL)
	if server.portal == nil {
		server.portal = external.NewCBioPortalClient(cfg.CBioPortal())
	}
	resilient := external.NewResilientCBioPortalClient(server.portal, cfg.CBioPortal(),
		external.WithCache(server.cache, cfg.CacheTTL),
		external.WithLogger(server.logger),
		external.WithMetrics(server.metrics),
	)

	server.predictor = service.NewPredictionService(server.scorer, server.dispatcher, server.metrics, server.logger)
	server.cohorts = service.NewCohortExplorer(resilient, server.logger)

	server.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, nil)
	server.registerTools()

	server.logger.WithFields(logrus.Fields{
		"data_dir":  cfg.DataDir,
		"transport": cfg.Transport,
	}).Info("Lite server initialized successfully")
	return server, nil
}

// Start runs the MCP session on the configured transport until ctx is done.
func (s *LiteServer) Start(ctx context.Context) error {
	s.logger.WithField("transport_type", s.config.Transport).Info("Starting oncology MCP server")

	switch s.config.Transport {
	case "", "stdio":
		if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("MCP server failed: %w", err)
		}
		return nil
	case "http":
		return s.serveHTTP(ctx)
	default:
		return fmt.Errorf("unsupported transport %q", s.config.Transport)
	}
}

// serveHTTP exposes the server over streamable HTTP at /mcp
func (s *LiteServer) serveHTTP(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil))
	mux.Handle("/metrics", s.metrics.Handler())

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", httpServer.Addr).Info("MCP HTTP transport listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("MCP HTTP transport failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// Close drains pending audit records and releases resources.
func (s *LiteServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	var errs []error
	if s.dispatcher != nil {
		if err := s.dispatcher.Close(ctx); err != nil {
			s.logger.WithError(err).Error("Failed to drain audit queue")
			errs = append(errs, err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close audit store")
			errs = append(errs, err)
		}
	}
	if s.cache != nil {
		_ = s.cache.Close()
	}
	return errors.Join(errs...)
}

// AuditStore returns the audit store for external access.
func (s *LiteServer) AuditStore() audit.Store {
	return s.store
}
