package entity

import (
	"context"

	"github.com/nerrad567/mygren-bridge/internal/mygren"
)

// SensorDescription declares a read-only value projection.
type SensorDescription struct {
	ID          string
	Name        string
	Unit        string
	DeviceClass string
	Diagnostic  bool
	// ValueFn reads the value; ok is false when the register is absent.
	ValueFn func(tel mygren.Telemetry) (value any, ok bool)
}

// Sensor is a read-only projection of a telemetry register.
type Sensor struct {
	desc SensorDescription
}

// NewSensor creates a sensor from its description.
func NewSensor(desc SensorDescription) *Sensor {
	return &Sensor{desc: desc}
}

// floatSensor reads a numeric register, absent when missing from the
// snapshot.
func floatSensor(key string) func(tel mygren.Telemetry) (any, bool) {
	return func(tel mygren.Telemetry) (any, bool) {
		if !tel.Has(key) {
			return nil, false
		}
		return tel.Float(key), true
	}
}

// stringSensor reads a string register, absent when missing or empty.
func stringSensor(key string) func(tel mygren.Telemetry) (any, bool) {
	return func(tel mygren.Telemetry) (any, bool) {
		v := tel.String(key)
		return v, v != ""
	}
}

// NewSensors builds the bridge's sensor catalogue: a representative set
// of temperatures, operational registers, and diagnostic identity, not
// the firmware's full register table.
func NewSensors() []*Sensor {
	descriptions := []SensorDescription{
		// Temperatures
		{ID: "interior_temperature", Name: "Interior Temperature", Unit: "°C", DeviceClass: "temperature", ValueFn: floatSensor("Tint")},
		{ID: "interior_temperature_avg", Name: "Interior Temperature Average", Unit: "°C", DeviceClass: "temperature", ValueFn: floatSensor("TintAvg")},
		{ID: "exterior_temperature", Name: "Exterior Temperature", Unit: "°C", DeviceClass: "temperature", ValueFn: floatSensor("Text")},
		{ID: "exterior_temperature_avg", Name: "Exterior Temperature Average", Unit: "°C", DeviceClass: "temperature", ValueFn: floatSensor("TextAvg")},
		{ID: "buffer_temperature", Name: "Buffer Temperature", Unit: "°C", DeviceClass: "temperature", ValueFn: floatSensor("Tbuf")},
		{ID: "hot_water_temperature", Name: "Hot Water Temperature", Unit: "°C", DeviceClass: "temperature", ValueFn: floatSensor("Ttuv")},
		{ID: "discharge_temperature", Name: "Discharge Temperature", Unit: "°C", DeviceClass: "temperature", ValueFn: floatSensor("Tdischarge")},
		{
			ID: "system_destination_temperature", Name: "System Destination Temperature",
			Unit: "°C", DeviceClass: "temperature",
			// Renamed between firmware versions.
			ValueFn: func(tel mygren.Telemetry) (any, bool) {
				if tel.Has("system_dest") {
					return tel.Float("system_dest"), true
				}
				if tel.Has("heat_dest") {
					return tel.Float("heat_dest"), true
				}
				return nil, false
			},
		},

		// Operational
		{ID: "control_state", Name: "Control State", ValueFn: stringSensor("mar_state")},
		{ID: "program", Name: "Program Mode", ValueFn: stringSensor("program")},
		{ID: "tariff", Name: "Tariff State", ValueFn: stringSensor("tariff")},
		{ID: "comfort_setpoint", Name: "Comfort Temperature Setting", Unit: "°C", DeviceClass: "temperature", ValueFn: floatSensor("comfort")},
		{ID: "hot_water_setpoint", Name: "Hot Water Target Temperature", Unit: "°C", DeviceClass: "temperature", ValueFn: floatSensor("tuv_set")},
		{ID: "compressor_runtime", Name: "Compressor Runtime", Unit: "h", ValueFn: floatSensor("cruntime")},
		{ID: "compressor_starts", Name: "Compressor Starts", ValueFn: floatSensor("cstartcnt")},

		// Diagnostic identity
		{ID: "mar_version", Name: "MaR Version", Diagnostic: true, ValueFn: stringSensor("mar_version")},
		{ID: "hostname", Name: "Hostname", Diagnostic: true, ValueFn: stringSensor("hostname")},
	}

	sensors := make([]*Sensor, 0, len(descriptions))
	for _, desc := range descriptions {
		sensors = append(sensors, NewSensor(desc))
	}
	return sensors
}

func (s *Sensor) ID() string   { return s.desc.ID }
func (s *Sensor) Name() string { return s.desc.Name }
func (s *Sensor) Kind() Kind   { return KindSensor }

// Diagnostic reports whether the sensor belongs in the diagnostic
// entity category.
func (s *Sensor) Diagnostic() bool { return s.desc.Diagnostic }

func (s *Sensor) Available(tel mygren.Telemetry) bool {
	_, ok := s.desc.ValueFn(tel)
	return ok
}

func (s *Sensor) State(tel mygren.Telemetry) State {
	state := State{}
	if value, ok := s.desc.ValueFn(tel); ok {
		state["state"] = value
	}
	if s.desc.Unit != "" {
		state["unit"] = s.desc.Unit
	}
	if s.desc.DeviceClass != "" {
		state["device_class"] = s.desc.DeviceClass
	}
	return state
}

func (s *Sensor) Apply(_ context.Context, _ mygren.Telemetry, _ Command) error {
	return ErrReadOnly
}
