package entity

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nerrad567/mygren-bridge/internal/mygren"
)

// HVAC modes and actions, matching Home Assistant's climate vocabulary.
const (
	ModeOff  = "off"
	ModeHeat = "heat"
	ModeCool = "cool"

	ActionOff     = "off"
	ActionHeating = "heating"
	ActionCooling = "cooling"
	ActionIdle    = "idle"
)

// Comfort setpoint bounds used when the device does not report its own.
const (
	defaultComfortMin = 15
	defaultComfortMax = 35
)

// Climate exposes the heating/cooling circuit.
//
// MaR v4 firmware drives the circuit through string-based program names
// from the telemetry's available_programs list (e.g. "Off",
// "Manual_comfort", "Cooling_comfort"). The program-to-mode mapping is a
// fuzzy substring match:
//
//	"Off" (exact)        -> off
//	contains "Manual"    -> heat
//	contains "Cooling"   -> cool
//
// Both heating and cooling programs regulate against the interior-sensor
// thermostat with the comfort setpoint. The manual output temperature is
// a separate Number entity.
type Climate struct {
	id         string
	name       string
	controller Controller

	logger   Logger
	loggerMu sync.RWMutex
}

// NewClimate creates the climate entity.
func NewClimate(controller Controller) *Climate {
	return &Climate{
		id:         "heat_pump",
		name:       "Heating",
		controller: controller,
	}
}

// SetLogger sets a logger for command warnings.
func (c *Climate) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Climate) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

func (c *Climate) ID() string   { return c.id }
func (c *Climate) Name() string { return c.name }
func (c *Climate) Kind() Kind   { return KindClimate }

// Available reports true whenever a snapshot exists; the climate card
// degrades gracefully with partial data.
func (c *Climate) Available(_ mygren.Telemetry) bool { return true }

// State projects the snapshot into mode, action, temperatures, and the
// program attributes.
func (c *Climate) State(tel mygren.Telemetry) State {
	state := State{
		"state":              hvacMode(tel),
		"action":             hvacAction(tel),
		"target_temperature": tel.FloatOr("comfort", 0),
		"min_temp":           tel.FloatOr("comfort_setmin", defaultComfortMin),
		"max_temp":           tel.FloatOr("comfort_setmax", defaultComfortMax),
		"modes":              availableModes(tel),
		"program":            tel.String("program"),
		"available_programs": tel.StringList("available_programs"),
	}

	if temp, ok := currentTemperature(tel); ok {
		state["current_temperature"] = temp
	}

	return state
}

// Apply handles set_temperature (comfort setpoint) and set_mode.
func (c *Climate) Apply(ctx context.Context, tel mygren.Telemetry, cmd Command) error {
	switch cmd.Name {
	case CommandSetTemperature:
		value, ok := commandValueFloat(cmd.Value)
		if !ok {
			return fmt.Errorf("%w: set_temperature wants a number, got %T", ErrInvalidValue, cmd.Value)
		}
		return c.controller.SetComfortTemperature(ctx, int(value))

	case CommandSetMode:
		mode, ok := commandValueString(cmd.Value)
		if !ok {
			return fmt.Errorf("%w: set_mode wants a string, got %T", ErrInvalidValue, cmd.Value)
		}
		return c.setMode(ctx, tel, mode)

	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Name)
	}
}

// setMode selects the matching program for the target mode.
//
// Off prefers the "Off" program (keeping the unit enabled for hot water);
// with no "Off" program available it disables the heat pump entirely.
// Heat/cool enable the heat pump first, then select the program; with no
// matching program a warning is logged and the program stays untouched.
func (c *Climate) setMode(ctx context.Context, tel mygren.Telemetry, mode string) error {
	available := tel.StringList("available_programs")

	switch mode {
	case ModeOff:
		prog, found := findProgram(available, ModeOff)
		if !found {
			return c.controller.SetHeatpumpEnabled(ctx, false)
		}
		if err := c.controller.SetProgram(ctx, prog); err != nil {
			return err
		}
		return c.controller.SetHeatpumpEnabled(ctx, true)

	case ModeHeat, ModeCool:
		if err := c.controller.SetHeatpumpEnabled(ctx, true); err != nil {
			return err
		}
		prog, found := findProgram(available, mode)
		if !found {
			if logger := c.getLogger(); logger != nil {
				logger.Warn("no matching program for mode", "mode", mode, "available", available)
			}
			return nil
		}
		return c.controller.SetProgram(ctx, prog)

	default:
		return fmt.Errorf("%w: mode %q", ErrInvalidValue, mode)
	}
}

// =============================================================================
// Projection Helpers
// =============================================================================

// hvacMode derives the mode from the active program string.
// hp_enabled false forces off regardless of the program.
func hvacMode(tel mygren.Telemetry) string {
	if !tel.Bool("hp_enabled") {
		return ModeOff
	}

	program := tel.String("program")
	switch {
	case program == "Off":
		return ModeOff
	case strings.Contains(program, "Cooling"):
		return ModeCool
	case strings.Contains(program, "Manual"):
		return ModeHeat
	default:
		// Unknown program string, treat as off
		return ModeOff
	}
}

// hvacAction derives what the circuit is doing right now from the run
// flags. Demand without a running compressor reads as idle.
func hvacAction(tel mygren.Telemetry) string {
	if !tel.Bool("hp_enabled") || tel.String("program") == "Off" {
		return ActionOff
	}

	if tel.Bool("cooling") {
		if tel.Bool("compressor") {
			return ActionCooling
		}
		return ActionIdle
	}

	if tel.Bool("heating") || tel.Bool("heatneed") {
		if tel.Bool("compressor") {
			return ActionHeating
		}
		return ActionIdle
	}

	return ActionIdle
}

// currentTemperature returns the interior temperature, falling back to
// the buffer sensor when the interior reads zero (sensor not fitted).
func currentTemperature(tel mygren.Telemetry) (float64, bool) {
	if tint := tel.Float("Tint"); tel.Has("Tint") && tint != 0 {
		return tint, true
	}
	if tbuf := tel.Float("Tbuf"); tbuf != 0 {
		return tbuf, true
	}
	return 0, false
}

// availableModes builds the selectable mode list from available_programs.
func availableModes(tel mygren.Telemetry) []string {
	modes := []string{ModeOff}

	haveHeat, haveCool := false, false
	for _, prog := range tel.StringList("available_programs") {
		if prog == "Off" {
			continue
		}
		switch {
		case strings.Contains(prog, "Manual") && !haveHeat:
			modes = append(modes, ModeHeat)
			haveHeat = true
		case strings.Contains(prog, "Cooling") && !haveCool:
			modes = append(modes, ModeCool)
			haveCool = true
		}
	}

	return modes
}

// findProgram returns the first available program matching the mode.
func findProgram(available []string, mode string) (string, bool) {
	var match func(string) bool
	switch mode {
	case ModeOff:
		match = func(p string) bool { return p == "Off" }
	case ModeHeat:
		match = func(p string) bool { return strings.Contains(p, "Manual") }
	case ModeCool:
		match = func(p string) bool { return strings.Contains(p, "Cooling") }
	default:
		return "", false
	}

	for _, prog := range available {
		if match(prog) {
			return prog, true
		}
	}
	return "", false
}
