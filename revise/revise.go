// Package revise wires the diff engine, the review controller and the
// version history into one service.
package revise

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sokinpui/revise/internal/config"
	"github.com/sokinpui/revise/internal/engine"
	"github.com/sokinpui/revise/internal/history"
	"github.com/sokinpui/revise/internal/metrics"
	"github.com/sokinpui/revise/internal/review"
	"github.com/sokinpui/revise/internal/server"
)

// Config for using revise as a library.
type Config = config.Config

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return config.Default()
}

// Service owns one version store and the controller writing to it.
type Service struct {
	Engine   *engine.Engine
	History  *history.Store
	Review   *review.Controller
	Registry *prometheus.Registry

	log *slog.Logger
}

// Open builds a Service for cfg. A nil logger means slog.Default().
func Open(cfg Config, logger *slog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	backend, err := openBackend(cfg.Store)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	eng := engine.New(engine.Options{Limits: cfg.DiffLimits(), Metrics: m})
	store := history.New(history.Options{Backend: backend, Engine: eng, Metrics: m, Logger: logger})
	ctrl := review.New(review.Options{
		History: store,
		Differ:  engine.NewScheduler(eng, logger),
		Metrics: m,
		Logger:  logger,
	})

	logger.Debug("service opened", "driver", cfg.Store.Driver, "path", cfg.Store.Path)
	return &Service{Engine: eng, History: store, Review: ctrl, Registry: reg, log: logger}, nil
}

func openBackend(cfg config.StoreConfig) (history.Backend, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return history.NewMemory(), nil
	case config.DriverSQLite:
		b, err := history.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite history: %w", err)
		}
		return b, nil
	case config.DriverBadger:
		b, err := history.OpenBadger(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger history: %w", err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// Server returns an HTTP server over the service.
func (s *Service) Server() *server.Server {
	return server.New(server.Options{
		Engine:     s.Engine,
		Controller: s.Review,
		Gatherer:   s.Registry,
		Logger:     s.log,
	})
}

// Serve runs the HTTP server until ctx is cancelled.
func (s *Service) Serve(ctx context.Context, addr string) error {
	return s.Server().Run(ctx, addr)
}

func (s *Service) Close() error {
	return s.History.Close()
}
