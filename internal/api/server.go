package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/mygren-bridge/internal/coordinator"
	"github.com/nerrad567/mygren-bridge/internal/entity"
	"github.com/nerrad567/mygren-bridge/internal/infrastructure/config"
	"github.com/nerrad567/mygren-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/mygren-bridge/internal/mygren"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Poller is the polling-loop surface the API reports on and pokes.
// Satisfied by *coordinator.Coordinator.
type Poller interface {
	Stats() coordinator.Stats
	Healthy() bool
	RequestRefresh()
}

// HeatPump is the diagnostics surface passed through verbatim.
// Satisfied by *mygren.Client.
type HeatPump interface {
	Resources(ctx context.Context) (json.RawMessage, error)
	DaemonLog(ctx context.Context) (json.RawMessage, error)
	RunLog(ctx context.Context) (json.RawMessage, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Logger   *logging.Logger
	Registry *entity.Registry
	Poller   Poller
	Pump     HeatPump
	Version  string
}

// Server is the HTTP API server for the Mygren bridge.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	logger   *logging.Logger
	registry *entity.Registry
	poller   Poller
	pump     HeatPump
	version  string

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("entity registry is required")
	}
	if deps.Poller == nil {
		return nil, fmt.Errorf("poller is required")
	}
	// Pump is optional; diagnostics endpoints 503 without it.

	return &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		logger:   deps.Logger,
		registry: deps.Registry,
		poller:   deps.Poller,
		pump:     deps.Pump,
		version:  deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, and launches the
// HTTP listener in a background goroutine. The server is stopped with
// Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete, then
// forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}

// =============================================================================
// coordinator.Listener
// =============================================================================

// OnTelemetry broadcasts the fresh snapshot and the projected entity
// states to subscribed WebSocket clients.
func (s *Server) OnTelemetry(tel mygren.Telemetry) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(ChannelTelemetry, tel)
	s.hub.Broadcast(ChannelStates, s.registry.States())
}

// OnUpdateFailed broadcasts an availability event so clients can grey
// out their views while the heat pump is unreachable.
func (s *Server) OnUpdateFailed(err error) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(ChannelAvailability, map[string]any{
		"available": false,
		"error":     err.Error(),
	})
}
