package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-tilt/internal/broadcaster"
	"github.com/nerrad567/gray-logic-tilt/internal/devices"
	"github.com/nerrad567/gray-logic-tilt/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-tilt/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-tilt/internal/scanner"
	"github.com/nerrad567/gray-logic-tilt/internal/sighting"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// DeviceRegistry is the read side of the device name table.
// Implemented by *devices.Registry.
type DeviceRegistry interface {
	Entries() []devices.Entry
	Name(mac string) (string, bool)
	SyncTargets(name string) []devices.SyncTarget
}

// NameApplier applies and persists name overrides.
// Implemented by *pipeline.Pipeline.
type NameApplier interface {
	ApplyNameOverrides(overrides []devices.NameOverride) error
}

// StatusProvider reports the scan loop status.
// Implemented by *broadcaster.Broadcaster.
type StatusProvider interface {
	Status() broadcaster.Status
}

// HealthChecker is implemented by the MQTT, InfluxDB and database clients.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Registry DeviceRegistry
	Names    NameApplier

	// Optional. Endpoints backed by a nil dependency answer 503.
	Sightings sighting.Repository
	Collector *scanner.Collector
	Status    StatusProvider
	Checks    map[string]HealthChecker
	Hub       *Hub

	Version string
}

// Server is the HTTP API server.
type Server struct {
	cfg       config.APIConfig
	logger    *logging.Logger
	registry  DeviceRegistry
	names     NameApplier
	sightings sighting.Repository
	collector *scanner.Collector
	status    StatusProvider
	checks    map[string]HealthChecker
	hub       *Hub
	version   string
	server    *http.Server
}

// New creates a new API server. The server is not started until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if deps.Names == nil {
		return nil, fmt.Errorf("name applier is required")
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		registry:  deps.Registry,
		names:     deps.Names,
		sightings: deps.Sightings,
		collector: deps.Collector,
		status:    deps.Status,
		checks:    deps.Checks,
		hub:       deps.Hub,
		version:   deps.Version,
	}, nil
}

// Start launches the HTTP listener in a background goroutine. The
// WebSocket hub, when set, runs until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	if s.hub != nil {
		go s.hub.Run(ctx)
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
