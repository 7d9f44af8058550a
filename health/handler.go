package health

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/c360/dashstream/errors"
)

// Server exposes monitor state over HTTP for probes and dashboards.
//
// Endpoints:
//   - GET /health  - aggregated system health as JSON (503 when unhealthy)
//   - GET /healthz - liveness probe, always 200 while the server runs
//   - GET /readyz  - readiness probe, 503 when any component is unhealthy
type Server struct {
	port       int
	systemName string
	monitor    *Monitor
	logger     *slog.Logger
	server     *http.Server
	mu         sync.Mutex // protects server field
}

// NewServer creates a health server for the given monitor. A zero port
// defaults to 8081.
func NewServer(port int, systemName string, monitor *Monitor, logger *slog.Logger) *Server {
	if port == 0 {
		port = 8081
	}
	if systemName == "" {
		systemName = "system"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		port:       port,
		systemName: systemName,
		monitor:    monitor,
		logger:     logger,
	}
}

// Start starts the health HTTP server and blocks until it stops.
// A server shut down via Stop returns nil.
func (s *Server) Start() error {
	s.mu.Lock()

	if s.server != nil {
		s.mu.Unlock()
		return errors.WrapInvalid(
			fmt.Errorf("server already running"),
			"Server", "Start", "cannot start server that is already running")
	}

	if s.monitor == nil {
		s.mu.Unlock()
		return errors.WrapFatal(
			fmt.Errorf("nil monitor"),
			"Server", "Start", "health monitor not provided")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleSystemHealth)
	mux.HandleFunc("/healthz", s.handleLiveness)
	mux.HandleFunc("/readyz", s.handleReadiness)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}
	srv := s.server
	s.mu.Unlock()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.WrapFatal(err, "Server", "Start",
			fmt.Sprintf("serve on port %d", s.port))
	}

	return nil
}

// Stop stops the health server
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		err := s.server.Close()
		s.server = nil // reset server field to allow restart
		if err != nil {
			return errors.WrapTransient(err, "Server", "Stop",
				"close HTTP server")
		}
	}
	return nil
}

// handleSystemHealth returns aggregated system health as JSON
func (s *Server) handleSystemHealth(w http.ResponseWriter, _ *http.Request) {
	systemHealth := s.monitor.AggregateHealth(s.systemName)

	w.Header().Set("Content-Type", "application/json")
	if systemHealth.IsUnhealthy() {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(systemHealth); err != nil {
		s.logger.Error("Failed to encode system health response", "error", err)
	}
}

// handleLiveness is a simple liveness probe
func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReadiness reports ready unless some component is unhealthy.
// Degraded still serves traffic, so it counts as ready.
func (s *Server) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	systemHealth := s.monitor.AggregateHealth(s.systemName)

	if systemHealth.IsUnhealthy() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("NOT READY"))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("READY"))
}
