package entity

import (
	"context"
	"fmt"

	"github.com/nerrad567/mygren-bridge/internal/mygren"
)

// Water heater operations and states.
const (
	OperationAuto = "auto"
	OperationOff  = "off"

	WaterStateOff     = "off"
	WaterStateHeating = "heating"
	WaterStateIdle    = "idle"
)

// Hot water setpoint bounds used when the device does not report its own.
const (
	defaultTUVMin = 30
	defaultTUVMax = 50
)

// WaterHeater exposes the domestic hot water (TUV) circuit.
type WaterHeater struct {
	id         string
	name       string
	controller Controller
}

// NewWaterHeater creates the water heater entity.
func NewWaterHeater(controller Controller) *WaterHeater {
	return &WaterHeater{
		id:         "domestic_hot_water",
		name:       "Hot Water",
		controller: controller,
	}
}

func (w *WaterHeater) ID() string   { return w.id }
func (w *WaterHeater) Name() string { return w.name }
func (w *WaterHeater) Kind() Kind   { return KindWaterHeater }

func (w *WaterHeater) Available(_ mygren.Telemetry) bool { return true }

// State projects the TUV registers: off when disabled, heating while the
// tank calls for heat, idle otherwise.
func (w *WaterHeater) State(tel mygren.Telemetry) State {
	return State{
		"state":               waterState(tel),
		"operation":           waterOperation(tel),
		"current_temperature": tel.FloatOr("Ttuv", 0),
		"target_temperature":  tel.FloatOr("tuv_set", 0),
		"min_temp":            tel.FloatOr("tuv_setmin", defaultTUVMin),
		"max_temp":            tel.FloatOr("tuv_setmax", defaultTUVMax),
		"operations":          []string{OperationAuto, OperationOff},
	}
}

// Apply handles set_temperature (bounds-checked against the device's
// reported range) and set_operation (auto/off).
func (w *WaterHeater) Apply(ctx context.Context, tel mygren.Telemetry, cmd Command) error {
	switch cmd.Name {
	case CommandSetTemperature:
		value, ok := commandValueFloat(cmd.Value)
		if !ok {
			return fmt.Errorf("%w: set_temperature wants a number, got %T", ErrInvalidValue, cmd.Value)
		}

		temperature := int(value)
		minTemp := tel.FloatOr("tuv_setmin", defaultTUVMin)
		maxTemp := tel.FloatOr("tuv_setmax", defaultTUVMax)
		if float64(temperature) < minTemp || float64(temperature) > maxTemp {
			return fmt.Errorf("%w: %d outside %v-%v", ErrOutOfRange, temperature, minTemp, maxTemp)
		}
		return w.controller.SetTUVTemperature(ctx, temperature)

	case CommandSetOperation:
		operation, ok := commandValueString(cmd.Value)
		if !ok {
			return fmt.Errorf("%w: set_operation wants a string, got %T", ErrInvalidValue, cmd.Value)
		}
		switch operation {
		case OperationAuto:
			return w.controller.SetTUVEnabled(ctx, true)
		case OperationOff:
			return w.controller.SetTUVEnabled(ctx, false)
		default:
			return fmt.Errorf("%w: operation %q", ErrInvalidValue, operation)
		}

	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Name)
	}
}

func waterState(tel mygren.Telemetry) string {
	if !tel.Bool("tuv_enabled") {
		return WaterStateOff
	}
	if tel.Bool("tuvneedheat") {
		return WaterStateHeating
	}
	return WaterStateIdle
}

func waterOperation(tel mygren.Telemetry) string {
	if tel.Bool("tuv_enabled") {
		return OperationAuto
	}
	return OperationOff
}
