package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// System
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		// Telemetry snapshot and polling
		r.Get("/telemetry", s.handleTelemetry)
		r.Post("/refresh", s.handleRefresh)

		// Entities
		r.Route("/entities", func(r chi.Router) {
			r.Get("/", s.handleListEntities)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetEntity)
				r.Post("/command", s.handleEntityCommand)
			})
		})

		// Heat pump diagnostics passthrough
		r.Route("/heatpump", func(r chi.Router) {
			r.Get("/resources", s.handleResources)
			r.Get("/daemonlog", s.handleDaemonLog)
			r.Get("/runlog", s.handleRunLog)
		})

		// WebSocket
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}
