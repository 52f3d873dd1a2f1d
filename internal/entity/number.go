package entity

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/mygren-bridge/internal/mygren"
)

// NumberDescription declares an adjustable numeric entity.
type NumberDescription struct {
	ID   string
	Name string
	Min  float64
	Max  float64
	Step float64
	// ValueFn reads the current value; ok is false when the register is
	// absent from the snapshot.
	ValueFn func(tel mygren.Telemetry) (value float64, ok bool)
	SetFn   func(ctx context.Context, c Controller, value int) error
}

// Number is an adjustable value with a confirm-clearing optimistic latch.
//
// The control loop applies curve and shift changes over several cycles,
// so intermediate polls can still report the old value. The latch
// therefore survives non-confirming polls and clears only when a polled
// value matches the pending one (integer comparison; these registers are
// whole numbers).
type Number struct {
	desc       NumberDescription
	controller Controller

	// optimistic: nil means "use telemetry".
	optimistic *float64
	mu         sync.Mutex
}

// NewNumber creates a number from its description.
func NewNumber(desc NumberDescription, controller Controller) *Number {
	return &Number{
		desc:       desc,
		controller: controller,
	}
}

// NewNumbers builds the bridge's number catalogue.
func NewNumbers(controller Controller) []*Number {
	descriptions := []NumberDescription{
		{
			ID:   "curve",
			Name: "Heating Curve",
			Min:  1,
			Max:  9,
			Step: 1,
			ValueFn: func(tel mygren.Telemetry) (float64, bool) {
				return tel.Float("curve"), tel.Has("curve")
			},
			SetFn: func(ctx context.Context, c Controller, value int) error {
				return c.SetCurve(ctx, value)
			},
		},
		{
			ID:   "shift",
			Name: "Curve Shift",
			Min:  -5,
			Max:  5,
			Step: 1,
			ValueFn: func(tel mygren.Telemetry) (float64, bool) {
				return tel.Float("shift"), tel.Has("shift")
			},
			SetFn: func(ctx context.Context, c Controller, value int) error {
				return c.SetShift(ctx, value)
			},
		},
	}

	numbers := make([]*Number, 0, len(descriptions))
	for _, desc := range descriptions {
		numbers = append(numbers, NewNumber(desc, controller))
	}
	return numbers
}

func (n *Number) ID() string   { return n.desc.ID }
func (n *Number) Name() string { return n.desc.Name }
func (n *Number) Kind() Kind   { return KindNumber }

// Available requires the register to be present in the snapshot.
func (n *Number) Available(tel mygren.Telemetry) bool {
	if n.pending() != nil {
		return true
	}
	_, ok := n.desc.ValueFn(tel)
	return ok
}

func (n *Number) pending() *float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.optimistic
}

// HandleUpdate clears the latch only when the polled value confirms the
// pending one.
func (n *Number) HandleUpdate(tel mygren.Telemetry) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.optimistic == nil {
		return
	}
	actual, ok := n.desc.ValueFn(tel)
	if ok && int(actual) == int(*n.optimistic) {
		n.optimistic = nil
	}
}

// State reports the latched value while a command is unconfirmed,
// otherwise the telemetry value.
func (n *Number) State(tel mygren.Telemetry) State {
	value, _ := n.desc.ValueFn(tel)
	if latched := n.pending(); latched != nil {
		value = *latched
	}

	return State{
		"state": value,
		"min":   n.desc.Min,
		"max":   n.desc.Max,
		"step":  n.desc.Step,
	}
}

// Apply handles set_value. The latch is set before the API call; a
// failed call rolls it back.
func (n *Number) Apply(ctx context.Context, _ mygren.Telemetry, cmd Command) error {
	if cmd.Name != CommandSetValue {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Name)
	}
	value, ok := commandValueFloat(cmd.Value)
	if !ok {
		return fmt.Errorf("%w: set_value wants a number, got %T", ErrInvalidValue, cmd.Value)
	}

	n.mu.Lock()
	previous := n.optimistic
	n.optimistic = &value
	n.mu.Unlock()

	if err := n.desc.SetFn(ctx, n.controller, int(value)); err != nil {
		n.mu.Lock()
		n.optimistic = previous
		n.mu.Unlock()
		return err
	}
	return nil
}
