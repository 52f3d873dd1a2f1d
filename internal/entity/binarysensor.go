package entity

import (
	"context"

	"github.com/nerrad567/mygren-bridge/internal/mygren"
)

// BinarySensorDescription declares a read-only flag projection.
type BinarySensorDescription struct {
	ID          string
	Name        string
	DeviceClass string
	ValueFn     func(tel mygren.Telemetry) bool
}

// BinarySensor is a read-only projection of a telemetry flag.
type BinarySensor struct {
	desc BinarySensorDescription
}

// NewBinarySensor creates a binary sensor from its description.
func NewBinarySensor(desc BinarySensorDescription) *BinarySensor {
	return &BinarySensor{desc: desc}
}

func boolSensor(key string) func(tel mygren.Telemetry) bool {
	return func(tel mygren.Telemetry) bool {
		return tel.Bool(key)
	}
}

// NewBinarySensors builds the bridge's binary sensor catalogue.
func NewBinarySensors() []*BinarySensor {
	descriptions := []BinarySensorDescription{
		{ID: "compressor", Name: "Compressor", DeviceClass: "running", ValueFn: boolSensor("compressor")},
		{ID: "heat_pump_running", Name: "Heat Pump Running", DeviceClass: "running", ValueFn: boolSensor("hprun")},
		{ID: "heating_active", Name: "Heating Active", DeviceClass: "heat", ValueFn: boolSensor("heating")},
		{ID: "cooling_active", Name: "Cooling Active", DeviceClass: "cold", ValueFn: boolSensor("cooling")},
		{ID: "heat_pump_enabled", Name: "Heat Pump Enabled", DeviceClass: "running", ValueFn: boolSensor("hp_enabled")},
		{ID: "hot_water_enabled", Name: "Hot Water Enabled", DeviceClass: "running", ValueFn: boolSensor("tuv_enabled")},
		{ID: "hot_water_needs_heat", Name: "Hot Water Needs Heat", DeviceClass: "heat", ValueFn: boolSensor("tuvneedheat")},
		{ID: "heat_needed", Name: "Heat Needed", DeviceClass: "heat", ValueFn: boolSensor("heatneed")},
		{
			ID: "tariff_installed", Name: "Tariff Installed",
			// Renamed between firmware versions.
			ValueFn: func(tel mygren.Telemetry) bool {
				return tel.Bool("tariff_installed") || tel.Bool("hdoinstalled")
			},
		},
	}

	sensors := make([]*BinarySensor, 0, len(descriptions))
	for _, desc := range descriptions {
		sensors = append(sensors, NewBinarySensor(desc))
	}
	return sensors
}

func (b *BinarySensor) ID() string   { return b.desc.ID }
func (b *BinarySensor) Name() string { return b.desc.Name }
func (b *BinarySensor) Kind() Kind   { return KindBinarySensor }

func (b *BinarySensor) Available(_ mygren.Telemetry) bool { return true }

func (b *BinarySensor) State(tel mygren.Telemetry) State {
	state := State{"state": b.desc.ValueFn(tel)}
	if b.desc.DeviceClass != "" {
		state["device_class"] = b.desc.DeviceClass
	}
	return state
}

func (b *BinarySensor) Apply(_ context.Context, _ mygren.Telemetry, _ Command) error {
	return ErrReadOnly
}
