package hass

import (
	"encoding/json"
	"fmt"

	"github.com/nerrad567/mygren-bridge/internal/entity"
	"github.com/nerrad567/mygren-bridge/internal/mygren"
)

// Discovery payload structs use Home Assistant's abbreviated MQTT
// discovery keys (stat_t, cmd_t, avty_t, ...) to keep retained payloads
// small on constrained brokers.

// discoveryDevice groups all entities under one device in the Home
// Assistant registry.
type discoveryDevice struct {
	Identifiers  []string `json:"ids"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"mf,omitempty"`
	Model        string   `json:"mdl,omitempty"`
	SWVersion    string   `json:"sw,omitempty"`
}

type climateDiscovery struct {
	Name                       string          `json:"name"`
	UniqueID                   string          `json:"uniq_id"`
	AvailabilityTopic          string          `json:"avty_t"`
	ModeStateTopic             string          `json:"mode_stat_t"`
	ModeStateTemplate          string          `json:"mode_stat_tpl"`
	ModeCommandTopic           string          `json:"mode_cmd_t"`
	Modes                      []string        `json:"modes"`
	TemperatureStateTopic      string          `json:"temp_stat_t"`
	TemperatureStateTemplate   string          `json:"temp_stat_tpl"`
	TemperatureCommandTopic    string          `json:"temp_cmd_t"`
	CurrentTemperatureTopic    string          `json:"curr_temp_t"`
	CurrentTemperatureTemplate string          `json:"curr_temp_tpl"`
	ActionTopic                string          `json:"act_t"`
	ActionTemplate             string          `json:"act_tpl"`
	MinTemp                    float64         `json:"min_temp"`
	MaxTemp                    float64         `json:"max_temp"`
	TempStep                   float64         `json:"temp_step"`
	Device                     discoveryDevice `json:"dev"`
}

type waterHeaterDiscovery struct {
	Name                       string          `json:"name"`
	UniqueID                   string          `json:"uniq_id"`
	AvailabilityTopic          string          `json:"avty_t"`
	ModeStateTopic             string          `json:"mode_stat_t"`
	ModeStateTemplate          string          `json:"mode_stat_tpl"`
	ModeCommandTopic           string          `json:"mode_cmd_t"`
	ModeCommandTemplate        string          `json:"mode_cmd_tpl"`
	Modes                      []string        `json:"modes"`
	TemperatureStateTopic      string          `json:"temp_stat_t"`
	TemperatureStateTemplate   string          `json:"temp_stat_tpl"`
	TemperatureCommandTopic    string          `json:"temp_cmd_t"`
	CurrentTemperatureTopic    string          `json:"curr_temp_t"`
	CurrentTemperatureTemplate string          `json:"curr_temp_tpl"`
	MinTemp                    float64         `json:"min_temp"`
	MaxTemp                    float64         `json:"max_temp"`
	Device                     discoveryDevice `json:"dev"`
}

type switchDiscovery struct {
	Name              string          `json:"name"`
	UniqueID          string          `json:"uniq_id"`
	AvailabilityTopic string          `json:"avty_t"`
	StateTopic        string          `json:"stat_t"`
	CommandTopic      string          `json:"cmd_t"`
	ValueTemplate     string          `json:"val_tpl"`
	PayloadOn         string          `json:"pl_on"`
	PayloadOff        string          `json:"pl_off"`
	Device            discoveryDevice `json:"dev"`
}

type numberDiscovery struct {
	Name              string          `json:"name"`
	UniqueID          string          `json:"uniq_id"`
	AvailabilityTopic string          `json:"avty_t"`
	StateTopic        string          `json:"stat_t"`
	CommandTopic      string          `json:"cmd_t"`
	ValueTemplate     string          `json:"val_tpl"`
	Min               float64         `json:"min"`
	Max               float64         `json:"max"`
	Step              float64         `json:"step"`
	Device            discoveryDevice `json:"dev"`
}

type sensorDiscovery struct {
	Name              string          `json:"name"`
	UniqueID          string          `json:"uniq_id"`
	AvailabilityTopic string          `json:"avty_t"`
	StateTopic        string          `json:"stat_t"`
	ValueTemplate     string          `json:"val_tpl"`
	UnitOfMeasurement string          `json:"unit_of_meas,omitempty"`
	DeviceClass       string          `json:"dev_cla,omitempty"`
	StateClass        string          `json:"stat_cla,omitempty"`
	EntityCategory    string          `json:"ent_cat,omitempty"`
	Device            discoveryDevice `json:"dev"`
}

type binarySensorDiscovery struct {
	Name              string          `json:"name"`
	UniqueID          string          `json:"uniq_id"`
	AvailabilityTopic string          `json:"avty_t"`
	StateTopic        string          `json:"stat_t"`
	ValueTemplate     string          `json:"val_tpl"`
	DeviceClass       string          `json:"dev_cla,omitempty"`
	Device            discoveryDevice `json:"dev"`
}

// Home Assistant's MQTT water heater only accepts modes from its fixed
// vocabulary, so the bridge's auto/off pair is mapped through templates.
const (
	waterHeaterModeTemplate        = "{% if value_json.operation == 'auto' %}heat_pump{% else %}off{% endif %}"
	waterHeaterModeCommandTemplate = "{% if value == 'heat_pump' %}auto{% else %}off{% endif %}"
	boolValueTemplate              = "{{ 'ON' if value_json.state else 'OFF' }}"
)

// publishDiscovery publishes one retained discovery config per entity.
// The snapshot seeds device identity and setpoint bounds.
func (b *Bridge) publishDiscovery(tel mygren.Telemetry) {
	device := b.discoveryDeviceInfo(tel)

	count := 0
	for _, e := range b.registry.List() {
		payload, ok := b.discoveryPayload(e, tel, device)
		if !ok {
			continue
		}

		data, err := json.Marshal(payload)
		if err != nil {
			b.logError("failed to marshal discovery config", fmt.Errorf("entity %s: %w", e.ID(), err))
			continue
		}

		topic := b.topics.DiscoveryConfig(b.discovery.Prefix, string(e.Kind()), b.discovery.NodeID, e.ID())
		if err := b.mqtt.Publish(topic, data, b.qos, true); err != nil {
			b.logError("failed to publish discovery config", fmt.Errorf("entity %s: %w", e.ID(), err))
			continue
		}
		count++
	}

	b.logInfo("published discovery configs", "count", count, "prefix", b.discovery.Prefix)
}

func (b *Bridge) discoveryDeviceInfo(tel mygren.Telemetry) discoveryDevice {
	info := entity.DeviceInfo(b.discovery.NodeID, b.discovery.DeviceName, tel)
	return discoveryDevice{
		Identifiers:  []string{info.ID},
		Name:         info.Name,
		Manufacturer: info.Manufacturer,
		Model:        info.Model,
		SWVersion:    info.SWVersion,
	}
}

// discoveryPayload builds the per-entity config. ok is false for kinds
// without a discovery mapping.
func (b *Bridge) discoveryPayload(e entity.Entity, tel mygren.Telemetry, device discoveryDevice) (any, bool) {
	component := string(e.Kind())
	objectID := e.ID()
	sample := e.State(tel)

	uniqueID := fmt.Sprintf("%s_%s", b.discovery.NodeID, objectID)
	stateTopic := b.topics.EntityState(component, objectID)
	availability := b.topics.Availability()

	switch e.Kind() {
	case entity.KindClimate:
		return climateDiscovery{
			Name:                       e.Name(),
			UniqueID:                   uniqueID,
			AvailabilityTopic:          availability,
			ModeStateTopic:             stateTopic,
			ModeStateTemplate:          "{{ value_json.state }}",
			ModeCommandTopic:           b.topics.EntityModeCommand(component, objectID),
			Modes:                      stringListAttr(sample, "modes"),
			TemperatureStateTopic:      stateTopic,
			TemperatureStateTemplate:   "{{ value_json.target_temperature }}",
			TemperatureCommandTopic:    b.topics.EntityTemperatureCommand(component, objectID),
			CurrentTemperatureTopic:    stateTopic,
			CurrentTemperatureTemplate: "{{ value_json.current_temperature }}",
			ActionTopic:                stateTopic,
			ActionTemplate:             "{{ value_json.action }}",
			MinTemp:                    floatAttr(sample, "min_temp"),
			MaxTemp:                    floatAttr(sample, "max_temp"),
			TempStep:                   1,
			Device:                     device,
		}, true

	case entity.KindWaterHeater:
		return waterHeaterDiscovery{
			Name:                       e.Name(),
			UniqueID:                   uniqueID,
			AvailabilityTopic:          availability,
			ModeStateTopic:             stateTopic,
			ModeStateTemplate:          waterHeaterModeTemplate,
			ModeCommandTopic:           b.topics.EntityModeCommand(component, objectID),
			ModeCommandTemplate:        waterHeaterModeCommandTemplate,
			Modes:                      []string{"off", "heat_pump"},
			TemperatureStateTopic:      stateTopic,
			TemperatureStateTemplate:   "{{ value_json.target_temperature }}",
			TemperatureCommandTopic:    b.topics.EntityTemperatureCommand(component, objectID),
			CurrentTemperatureTopic:    stateTopic,
			CurrentTemperatureTemplate: "{{ value_json.current_temperature }}",
			MinTemp:                    floatAttr(sample, "min_temp"),
			MaxTemp:                    floatAttr(sample, "max_temp"),
			Device:                     device,
		}, true

	case entity.KindSwitch:
		return switchDiscovery{
			Name:              e.Name(),
			UniqueID:          uniqueID,
			AvailabilityTopic: availability,
			StateTopic:        stateTopic,
			CommandTopic:      b.topics.EntityCommand(component, objectID),
			ValueTemplate:     boolValueTemplate,
			PayloadOn:         "ON",
			PayloadOff:        "OFF",
			Device:            device,
		}, true

	case entity.KindNumber:
		return numberDiscovery{
			Name:              e.Name(),
			UniqueID:          uniqueID,
			AvailabilityTopic: availability,
			StateTopic:        stateTopic,
			CommandTopic:      b.topics.EntityCommand(component, objectID),
			ValueTemplate:     "{{ value_json.state }}",
			Min:               floatAttr(sample, "min"),
			Max:               floatAttr(sample, "max"),
			Step:              floatAttr(sample, "step"),
			Device:            device,
		}, true

	case entity.KindSensor:
		payload := sensorDiscovery{
			Name:              e.Name(),
			UniqueID:          uniqueID,
			AvailabilityTopic: availability,
			StateTopic:        stateTopic,
			ValueTemplate:     "{{ value_json.state }}",
			UnitOfMeasurement: stringAttr(sample, "unit"),
			DeviceClass:       stringAttr(sample, "device_class"),
			Device:            device,
		}
		if payload.UnitOfMeasurement != "" {
			payload.StateClass = "measurement"
		}
		if d, ok := e.(interface{ Diagnostic() bool }); ok && d.Diagnostic() {
			payload.EntityCategory = "diagnostic"
		}
		return payload, true

	case entity.KindBinarySensor:
		return binarySensorDiscovery{
			Name:              e.Name(),
			UniqueID:          uniqueID,
			AvailabilityTopic: availability,
			StateTopic:        stateTopic,
			ValueTemplate:     boolValueTemplate,
			DeviceClass:       stringAttr(sample, "device_class"),
			Device:            device,
		}, true

	default:
		return nil, false
	}
}

func floatAttr(state entity.State, key string) float64 {
	if v, ok := state[key].(float64); ok {
		return v
	}
	return 0
}

func stringAttr(state entity.State, key string) string {
	if v, ok := state[key].(string); ok {
		return v
	}
	return ""
}

func stringListAttr(state entity.State, key string) []string {
	if v, ok := state[key].([]string); ok {
		return v
	}
	return nil
}
