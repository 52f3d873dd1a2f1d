package api

import (
	"net/http"
	"time"
)

// handleHealth returns the bridge health status. The status degrades to
// "degraded" while the heat pump is unreachable; the HTTP code stays
// 200 so orchestrators don't restart a bridge that is merely waiting
// out a pump outage.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	if !s.poller.Healthy() {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"version": s.version,
	})
}

// handleMetrics returns poller statistics and WebSocket client count.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	stats := s.poller.Stats()

	clients := 0
	if s.hub != nil {
		clients = s.hub.ClientCount()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"poller":            stats,
		"healthy":           s.poller.Healthy(),
		"websocket_clients": clients,
		"entities":          len(s.registry.List()),
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
	})
}

// handleTelemetry returns the latest raw telemetry snapshot.
func (s *Server) handleTelemetry(w http.ResponseWriter, _ *http.Request) {
	tel, ok := s.registry.Telemetry()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "no telemetry received yet")
		return
	}
	writeJSON(w, http.StatusOK, tel)
}

// handleRefresh requests an immediate out-of-band poll.
func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	s.poller.RequestRefresh()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status": "refresh requested",
	})
}
