package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"rwscout/internal/aggregate"
	"rwscout/internal/catalog"
	"rwscout/internal/logger"
	"rwscout/internal/metrics"
	"rwscout/internal/model"
	"rwscout/internal/probe"
)

// services are the collaborators every command builds from Config.
type services struct {
	cfg     *Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	client  *catalog.Client
}

// newServices builds the logger, metrics and backend client. An empty logPath
// logs to stderr.
func newServices(cfg *Config, logPath string) (*services, error) {
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, logPath)
	if err != nil {
		return nil, err
	}
	return &services{
		cfg:     cfg,
		logger:  log,
		metrics: metrics.New(),
		client:  catalog.NewClient(cfg.APIURL, cfg.HTTPTimeout),
	}, nil
}

func (s *services) close() {
	_ = s.logger.Sync()
}

// loadCatalog reads the configured catalog file, or fetches from the backend
// with q as its pre-filter. A catalog file is never pre-filtered.
func (s *services) loadCatalog(ctx context.Context, q catalog.Query) (*catalog.Store, error) {
	switch {
	case s.cfg.CatalogFile != "":
		s.logger.Info("loading catalog file", zap.String("path", s.cfg.CatalogFile))
		return catalog.LoadFile(s.cfg.CatalogFile)
	case s.cfg.APIURL != "":
		s.logger.Info("loading catalog", zap.String("api_url", s.client.BaseURL()))
		store, err := catalog.Load(ctx, s.client, q)
		if err != nil {
			return nil, err
		}
		s.logger.Info("catalog loaded", zap.Int("restaurants", store.Len()))
		return store, nil
	default:
		return nil, fmt.Errorf("%w: set api_url or catalog_file", model.ErrCatalogUnavailable)
	}
}

func (s *services) prober() *probe.Prober {
	return probe.New(s.client, s.logger)
}

func (s *services) orchestrator() *aggregate.Orchestrator {
	return aggregate.New(s.prober(),
		aggregate.WithDelay(s.cfg.ProbeDelay),
		aggregate.WithLogger(s.logger),
		aggregate.WithMetrics(s.metrics),
	)
}

// serveMetrics exposes /metrics on the configured address until ctx ends.
func (s *services) serveMetrics(ctx context.Context) {
	if s.cfg.MetricsAddr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics.Handler())
	srv := &http.Server{
		Addr:              s.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.logger.Info("serving metrics", zap.String("addr", s.cfg.MetricsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
