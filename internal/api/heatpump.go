package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/mygren-bridge/internal/mygren"
)

// Diagnostics endpoints proxy the heat pump's own REST responses
// verbatim. They hit the pump on every request (no caching), so they
// share the poller's auth session but not its snapshot.

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	s.passthrough(w, r, func(ctx context.Context) (json.RawMessage, error) {
		return s.pump.Resources(ctx)
	})
}

func (s *Server) handleDaemonLog(w http.ResponseWriter, r *http.Request) {
	s.passthrough(w, r, func(ctx context.Context) (json.RawMessage, error) {
		return s.pump.DaemonLog(ctx)
	})
}

func (s *Server) handleRunLog(w http.ResponseWriter, r *http.Request) {
	s.passthrough(w, r, func(ctx context.Context) (json.RawMessage, error) {
		return s.pump.RunLog(ctx)
	})
}

func (s *Server) passthrough(w http.ResponseWriter, r *http.Request, fetch func(ctx context.Context) (json.RawMessage, error)) {
	if s.pump == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "heat pump client not configured")
		return
	}

	raw, err := fetch(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, mygren.ErrConnection):
			writeError(w, http.StatusBadGateway, ErrCodeUpstream, "heat pump unreachable")
		case errors.Is(err, mygren.ErrAuth):
			writeError(w, http.StatusBadGateway, ErrCodeUpstream, "heat pump rejected credentials")
		default:
			writeError(w, http.StatusBadGateway, ErrCodeUpstream, err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response
	w.Write(raw)
}
