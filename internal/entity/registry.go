package entity

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/mygren-bridge/internal/mygren"
)

// Registry holds the bridge's entities and the latest telemetry snapshot.
//
// It implements coordinator.Listener: fresh snapshots update latch state
// and availability before any consumer reads entity states.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Registry struct {
	entities []Entity
	byID     map[string]Entity

	refresher Refresher

	telemetry mygren.Telemetry
	available bool
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry. The refresher is invoked after
// each successful command; pass the coordinator.
func NewRegistry(refresher Refresher) *Registry {
	return &Registry{
		byID:      make(map[string]Entity),
		refresher: refresher,
	}
}

// Add registers entities. IDs must be unique across the registry.
func (r *Registry) Add(entities ...Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range entities {
		if _, exists := r.byID[e.ID()]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateID, e.ID())
		}
		r.byID[e.ID()] = e
		r.entities = append(r.entities, e)
	}
	return nil
}

// =============================================================================
// coordinator.Listener
// =============================================================================

// OnTelemetry stores the snapshot, marks the registry available, and lets
// latch-carrying entities reconcile against the fresh data.
func (r *Registry) OnTelemetry(tel mygren.Telemetry) {
	r.mu.Lock()
	r.telemetry = tel
	r.available = true
	entities := r.entities
	r.mu.Unlock()

	for _, e := range entities {
		if updater, ok := e.(Updater); ok {
			updater.HandleUpdate(tel)
		}
	}
}

// OnUpdateFailed marks all entities unavailable until the next successful
// poll. The stale snapshot is retained for diagnostics.
func (r *Registry) OnUpdateFailed(_ error) {
	r.mu.Lock()
	r.available = false
	r.mu.Unlock()
}

// =============================================================================
// Accessors
// =============================================================================

// List returns all entities in registration order.
func (r *Registry) List() []Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entity, len(r.entities))
	copy(out, r.entities)
	return out
}

// Get returns the entity with the given id.
func (r *Registry) Get(id string) (Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	return e, ok
}

// Telemetry returns the latest stored snapshot.
// ok is false before the first successful poll.
func (r *Registry) Telemetry() (tel mygren.Telemetry, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.telemetry, r.telemetry != nil
}

// Available reports whether the last poll succeeded.
func (r *Registry) Available() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.available
}

// State returns the entity's current state from the stored snapshot.
func (r *Registry) State(id string) (State, error) {
	r.mu.RLock()
	tel := r.telemetry
	e, ok := r.byID[id]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if tel == nil {
		return nil, ErrNoTelemetry
	}
	return e.State(tel), nil
}

// States returns the current state of every entity, keyed by id.
func (r *Registry) States() map[string]State {
	r.mu.RLock()
	tel := r.telemetry
	entities := r.entities
	r.mu.RUnlock()

	if tel == nil {
		return map[string]State{}
	}

	out := make(map[string]State, len(entities))
	for _, e := range entities {
		out[e.ID()] = e.State(tel)
	}
	return out
}

// Command dispatches a command to an entity and, on success, requests an
// immediate poll so the optimistic state is confirmed quickly.
func (r *Registry) Command(ctx context.Context, id string, cmd Command) error {
	r.mu.RLock()
	tel := r.telemetry
	e, ok := r.byID[id]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if tel == nil {
		return ErrNoTelemetry
	}

	if err := e.Apply(ctx, tel, cmd); err != nil {
		return err
	}

	if r.refresher != nil {
		r.refresher.RequestRefresh()
	}
	return nil
}
