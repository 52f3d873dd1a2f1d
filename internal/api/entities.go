package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/mygren-bridge/internal/entity"
)

// entityDocument is a single entity's API representation.
type entityDocument struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Kind      entity.Kind  `json:"kind"`
	Available bool         `json:"available"`
	State     entity.State `json:"state,omitempty"`
}

// handleListEntities returns every entity with its current state.
func (s *Server) handleListEntities(w http.ResponseWriter, _ *http.Request) {
	tel, hasTelemetry := s.registry.Telemetry()
	bridgeAvailable := s.registry.Available()

	entities := s.registry.List()
	docs := make([]entityDocument, 0, len(entities))
	for _, e := range entities {
		doc := entityDocument{
			ID:   e.ID(),
			Name: e.Name(),
			Kind: e.Kind(),
		}
		if hasTelemetry {
			doc.Available = bridgeAvailable && e.Available(tel)
			doc.State = e.State(tel)
		}
		docs = append(docs, doc)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entities":  docs,
		"available": bridgeAvailable,
	})
}

// handleGetEntity returns a single entity's state.
func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	e, ok := s.registry.Get(id)
	if !ok {
		writeNotFound(w, "unknown entity: "+id)
		return
	}

	doc := entityDocument{
		ID:   e.ID(),
		Name: e.Name(),
		Kind: e.Kind(),
	}
	if tel, hasTelemetry := s.registry.Telemetry(); hasTelemetry {
		doc.Available = s.registry.Available() && e.Available(tel)
		doc.State = e.State(tel)
	}

	writeJSON(w, http.StatusOK, doc)
}

// handleEntityCommand dispatches a command to an entity.
//
// Request body: {"name": "set_temperature", "value": 22}
func (s *Server) handleEntityCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var cmd entity.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeBadRequest(w, "invalid command body: "+err.Error())
		return
	}
	if cmd.Name == "" {
		writeBadRequest(w, "command name is required")
		return
	}

	err := s.registry.Command(r.Context(), id, cmd)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]any{
			"status":  "accepted",
			"entity":  id,
			"command": cmd.Name,
		})
	case errors.Is(err, entity.ErrNotFound):
		writeNotFound(w, err.Error())
	case errors.Is(err, entity.ErrNoTelemetry):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, err.Error())
	case errors.Is(err, entity.ErrReadOnly),
		errors.Is(err, entity.ErrUnknownCommand),
		errors.Is(err, entity.ErrInvalidValue),
		errors.Is(err, entity.ErrOutOfRange):
		writeBadRequest(w, err.Error())
	default:
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, err.Error())
	}
}
