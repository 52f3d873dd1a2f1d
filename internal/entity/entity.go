package entity

import (
	"context"

	"github.com/nerrad567/mygren-bridge/internal/mygren"
)

// Kind is the entity platform, matching Home Assistant component names.
type Kind string

const (
	KindClimate      Kind = "climate"
	KindWaterHeater  Kind = "water_heater"
	KindSwitch       Kind = "switch"
	KindNumber       Kind = "number"
	KindSensor       Kind = "sensor"
	KindBinarySensor Kind = "binary_sensor"
)

// Command names accepted by Apply.
const (
	CommandTurnOn         = "turn_on"
	CommandTurnOff        = "turn_off"
	CommandSetValue       = "set_value"
	CommandSetTemperature = "set_temperature"
	CommandSetMode        = "set_mode"
	CommandSetOperation   = "set_operation"
)

// Command is a request to change an entity's state.
type Command struct {
	Name  string `json:"name"`
	Value any    `json:"value,omitempty"`
}

// State is an entity's externally visible state. The primary value lives
// under "state"; remaining keys are extra attributes.
type State map[string]any

// Entity is a typed projection of the telemetry snapshot.
//
// State and Available are pure functions of the snapshot (plus any
// optimistic latch the entity holds); Apply performs the API calls for
// a command. The caller requests the follow-up refresh.
type Entity interface {
	// ID is the stable object id, e.g. "heat_pump" or "tariff_watch".
	ID() string

	// Name is the human-readable name, e.g. "Tariff Watching".
	Name() string

	// Kind is the entity platform.
	Kind() Kind

	// State projects the snapshot into the entity's visible state.
	State(tel mygren.Telemetry) State

	// Available reports whether the entity has usable data in the
	// snapshot. Registry-level availability (poll health) is layered on
	// top of this.
	Available(tel mygren.Telemetry) bool

	// Apply executes a command against the heat pump. The snapshot is
	// the latest known telemetry (used e.g. for program matching and
	// bounds). Read-only entities return ErrReadOnly.
	Apply(ctx context.Context, tel mygren.Telemetry, cmd Command) error
}

// Updater is implemented by entities that maintain state across polls
// (optimistic latches). The Registry calls HandleUpdate with every fresh
// snapshot before states are read.
type Updater interface {
	HandleUpdate(tel mygren.Telemetry)
}

// Controller is the heat pump command surface entities need.
// Satisfied by *mygren.Client.
type Controller interface {
	SetTUVTemperature(ctx context.Context, temperature int) error
	SetTUVEnabled(ctx context.Context, enabled bool) error
	SetTUVSchedulerEnabled(ctx context.Context, enabled bool) error
	SetProgram(ctx context.Context, program string) error
	SetCurve(ctx context.Context, curve int) error
	SetShift(ctx context.Context, shift int) error
	SetManualTemperature(ctx context.Context, temperature int) error
	SetComfortTemperature(ctx context.Context, temperature int) error
	SetProgramSchedulerEnabled(ctx context.Context, enabled bool) error
	SetHeatpumpEnabled(ctx context.Context, enabled bool) error
	SetTariffWatch(ctx context.Context, enabled bool) error
}

// Refresher requests an immediate out-of-band poll.
// Satisfied by *coordinator.Coordinator.
type Refresher interface {
	RequestRefresh()
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
}

// commandValueFloat coerces a command value to float64.
// JSON decoding yields float64; int and string forms appear from MQTT
// payloads and in tests.
func commandValueFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// commandValueString coerces a command value to a string.
func commandValueString(value any) (string, bool) {
	s, ok := value.(string)
	return s, ok
}
