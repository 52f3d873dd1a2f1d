package entity

import (
	"context"
	"errors"
	"testing"

	"github.com/nerrad567/mygren-bridge/internal/mygren"
)

func newTestRegistry(t *testing.T, refresher Refresher, controller Controller) *Registry {
	t.Helper()

	registry := NewRegistry(refresher)
	if err := registry.Add(NewClimate(controller), NewWaterHeater(controller)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	for _, sw := range NewSwitches(controller) {
		if err := registry.Add(sw); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	return registry
}

// =============================================================================
// Registration
// =============================================================================

func TestRegistryAddDuplicate(t *testing.T) {
	controller := &fakeController{}
	registry := NewRegistry(nil)

	if err := registry.Add(NewClimate(controller)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := registry.Add(NewClimate(controller)); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Add() error = %v, want ErrDuplicateID", err)
	}
}

func TestRegistryGet(t *testing.T) {
	registry := newTestRegistry(t, nil, &fakeController{})

	if _, ok := registry.Get("heat_pump"); !ok {
		t.Error("Get(heat_pump) not found")
	}
	if _, ok := registry.Get("ghost"); ok {
		t.Error("Get(ghost) unexpectedly found")
	}
}

// =============================================================================
// Snapshot Lifecycle
// =============================================================================

func TestRegistryBeforeFirstPoll(t *testing.T) {
	registry := newTestRegistry(t, nil, &fakeController{})

	if _, ok := registry.Telemetry(); ok {
		t.Error("Telemetry() ok = true before first poll")
	}
	if registry.Available() {
		t.Error("Available() = true before first poll")
	}
	if _, err := registry.State("heat_pump"); !errors.Is(err, ErrNoTelemetry) {
		t.Errorf("State() error = %v, want ErrNoTelemetry", err)
	}
	if states := registry.States(); len(states) != 0 {
		t.Errorf("States() = %v, want empty", states)
	}
	err := registry.Command(context.Background(), "heat_pump", Command{Name: CommandSetTemperature, Value: 22.0})
	if !errors.Is(err, ErrNoTelemetry) {
		t.Errorf("Command() error = %v, want ErrNoTelemetry", err)
	}
}

func TestRegistryOnTelemetry(t *testing.T) {
	registry := newTestRegistry(t, nil, &fakeController{})
	registry.OnTelemetry(heatingSnapshot())

	if !registry.Available() {
		t.Error("Available() = false after successful poll")
	}

	state, err := registry.State("heat_pump")
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if state["state"] != ModeHeat {
		t.Errorf("heat_pump state = %v, want %q", state["state"], ModeHeat)
	}

	states := registry.States()
	if len(states) != 5 {
		t.Errorf("len(States()) = %d, want 5", len(states))
	}
}

func TestRegistryOnTelemetryClearsLatches(t *testing.T) {
	controller := &fakeController{}
	registry := newTestRegistry(t, nil, controller)
	registry.OnTelemetry(mygren.Telemetry{"tuv_sched_enabled": false})

	err := registry.Command(context.Background(), "tuv_scheduler_enabled", Command{Name: CommandTurnOn})
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}

	// The poll after the command reconciles the latch.
	registry.OnTelemetry(mygren.Telemetry{"tuv_sched_enabled": true})

	state, err := registry.State("tuv_scheduler_enabled")
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if state["state"] != true {
		t.Errorf("state = %v, want true", state["state"])
	}
}

func TestRegistryOnUpdateFailed(t *testing.T) {
	registry := newTestRegistry(t, nil, &fakeController{})
	registry.OnTelemetry(heatingSnapshot())
	registry.OnUpdateFailed(errors.New("pump unreachable"))

	if registry.Available() {
		t.Error("Available() = true after failed poll")
	}

	// Stale snapshot stays readable for diagnostics.
	if _, ok := registry.Telemetry(); !ok {
		t.Error("Telemetry() lost the stale snapshot")
	}
}

// =============================================================================
// Command Dispatch
// =============================================================================

func TestRegistryCommandRequestsRefresh(t *testing.T) {
	refresher := &fakeRefresher{}
	registry := newTestRegistry(t, refresher, &fakeController{})
	registry.OnTelemetry(heatingSnapshot())

	err := registry.Command(context.Background(), "heat_pump", Command{
		Name:  CommandSetTemperature,
		Value: 21.0,
	})
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	if refresher.refreshCount() != 1 {
		t.Errorf("refresh count = %d, want 1", refresher.refreshCount())
	}
}

func TestRegistryCommandFailureSkipsRefresh(t *testing.T) {
	refresher := &fakeRefresher{}
	registry := newTestRegistry(t, refresher, &fakeController{err: errors.New("pump offline")})
	registry.OnTelemetry(heatingSnapshot())

	err := registry.Command(context.Background(), "heat_pump", Command{
		Name:  CommandSetTemperature,
		Value: 21.0,
	})
	if err == nil {
		t.Fatal("Command() expected error")
	}
	if refresher.refreshCount() != 0 {
		t.Errorf("refresh count = %d, want 0", refresher.refreshCount())
	}
}

func TestRegistryCommandUnknownEntity(t *testing.T) {
	registry := newTestRegistry(t, nil, &fakeController{})
	registry.OnTelemetry(heatingSnapshot())

	err := registry.Command(context.Background(), "ghost", Command{Name: CommandTurnOn})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Command() error = %v, want ErrNotFound", err)
	}
}
