package entity

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/mygren-bridge/internal/mygren"
)

// SwitchDescription declares a toggle entity: how to read its state from
// telemetry and how to write it to the device.
type SwitchDescription struct {
	ID      string
	Name    string
	ValueFn func(tel mygren.Telemetry) bool
	SetFn   func(ctx context.Context, c Controller, on bool) error
}

// Switch is a toggle with an optimistic latch.
//
// A command sets the latch so consumers see the new state immediately;
// the latch clears when the next snapshot arrives, whatever it reports.
// The toggles are fast on the device side, so the first post-command poll
// already reflects them.
type Switch struct {
	desc       SwitchDescription
	controller Controller

	// optimistic: nil means "use telemetry".
	optimistic *bool
	mu         sync.Mutex
}

// NewSwitch creates a switch from its description.
func NewSwitch(desc SwitchDescription, controller Controller) *Switch {
	return &Switch{
		desc:       desc,
		controller: controller,
	}
}

// NewSwitches builds the bridge's switch catalogue.
func NewSwitches(controller Controller) []*Switch {
	descriptions := []SwitchDescription{
		{
			ID:   "tuv_scheduler_enabled",
			Name: "Hot Water Scheduler",
			ValueFn: func(tel mygren.Telemetry) bool {
				return tel.Bool("tuv_sched_enabled")
			},
			SetFn: func(ctx context.Context, c Controller, on bool) error {
				return c.SetTUVSchedulerEnabled(ctx, on)
			},
		},
		{
			ID:   "program_scheduler_enabled",
			Name: "Program Scheduler",
			ValueFn: func(tel mygren.Telemetry) bool {
				return tel.Bool("program_sched_enabled")
			},
			SetFn: func(ctx context.Context, c Controller, on bool) error {
				return c.SetProgramSchedulerEnabled(ctx, on)
			},
		},
		{
			ID:   "tariff_watch",
			Name: "Tariff Watching",
			// Older firmware reports this register under its Czech name.
			ValueFn: func(tel mygren.Telemetry) bool {
				return tel.Bool("tariff_watch") || tel.Bool("watchhdo")
			},
			SetFn: func(ctx context.Context, c Controller, on bool) error {
				return c.SetTariffWatch(ctx, on)
			},
		},
	}

	switches := make([]*Switch, 0, len(descriptions))
	for _, desc := range descriptions {
		switches = append(switches, NewSwitch(desc, controller))
	}
	return switches
}

func (s *Switch) ID() string   { return s.desc.ID }
func (s *Switch) Name() string { return s.desc.Name }
func (s *Switch) Kind() Kind   { return KindSwitch }

func (s *Switch) Available(_ mygren.Telemetry) bool { return true }

// HandleUpdate clears the optimistic latch: fresh telemetry is
// authoritative for switches.
func (s *Switch) HandleUpdate(_ mygren.Telemetry) {
	s.mu.Lock()
	s.optimistic = nil
	s.mu.Unlock()
}

// State reports the latched value while a command is pending, otherwise
// the telemetry value.
func (s *Switch) State(tel mygren.Telemetry) State {
	s.mu.Lock()
	latched := s.optimistic
	s.mu.Unlock()

	on := s.desc.ValueFn(tel)
	if latched != nil {
		on = *latched
	}

	return State{"state": on}
}

// Apply handles turn_on and turn_off. The latch is set before the API
// call; a failed call rolls it back.
func (s *Switch) Apply(ctx context.Context, _ mygren.Telemetry, cmd Command) error {
	var on bool
	switch cmd.Name {
	case CommandTurnOn:
		on = true
	case CommandTurnOff:
		on = false
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Name)
	}

	s.mu.Lock()
	previous := s.optimistic
	s.optimistic = &on
	s.mu.Unlock()

	if err := s.desc.SetFn(ctx, s.controller, on); err != nil {
		s.mu.Lock()
		s.optimistic = previous
		s.mu.Unlock()
		return err
	}
	return nil
}
