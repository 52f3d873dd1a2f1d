package mqtt

import "fmt"

// Topic prefixes for the Mygren bridge MQTT hierarchy.
//
// Entity topics use the flat scheme: mygren/{component}/{object_id}/{suffix}
// where component is the Home Assistant platform (climate, water_heater,
// switch, number, sensor, binary_sensor) and object_id is the entity key.
const (
	// TopicPrefix is the base for all bridge topics.
	TopicPrefix = "mygren"
)

// Availability payloads. Home Assistant availability topics expect plain
// string payloads, not JSON.
const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

// Topics provides builders for Mygren bridge MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.EntityState("climate", "heat_pump")
//	// Returns: "mygren/climate/heat_pump/state"
type Topics struct{}

// =============================================================================
// Entity Topics
// =============================================================================

// EntityState returns the topic for entity state updates from the bridge.
//
// Example: mygren/climate/heat_pump/state
func (Topics) EntityState(component, objectID string) string {
	return fmt.Sprintf("%s/%s/%s/state", TopicPrefix, component, objectID)
}

// EntityCommand returns the topic on which the bridge accepts commands
// for an entity.
//
// Example: mygren/switch/heat_pump_enabled/set
func (Topics) EntityCommand(component, objectID string) string {
	return fmt.Sprintf("%s/%s/%s/set", TopicPrefix, component, objectID)
}

// EntityModeCommand returns the command topic for a climate entity's
// HVAC mode. Climate entities carry several command topics (mode,
// temperature) so each gets its own suffix.
//
// Example: mygren/climate/heat_pump/mode/set
func (Topics) EntityModeCommand(component, objectID string) string {
	return fmt.Sprintf("%s/%s/%s/mode/set", TopicPrefix, component, objectID)
}

// EntityTemperatureCommand returns the command topic for a climate or
// water heater entity's target temperature.
//
// Example: mygren/water_heater/domestic_hot_water/temperature/set
func (Topics) EntityTemperatureCommand(component, objectID string) string {
	return fmt.Sprintf("%s/%s/%s/temperature/set", TopicPrefix, component, objectID)
}

// EntityAttributes returns the topic for extended entity attributes
// (JSON payload with fields beyond the primary state).
//
// Example: mygren/climate/heat_pump/attributes
func (Topics) EntityAttributes(component, objectID string) string {
	return fmt.Sprintf("%s/%s/%s/attributes", TopicPrefix, component, objectID)
}

// =============================================================================
// Bridge Topics
// =============================================================================

// Availability returns the bridge availability topic.
// The broker publishes the LWT here on unexpected disconnect.
//
// Example: mygren/status
func (Topics) Availability() string {
	return fmt.Sprintf("%s/status", TopicPrefix)
}

// Telemetry returns the topic carrying the full raw telemetry document
// as received from the heat pump, for consumers that want everything.
//
// Example: mygren/telemetry
func (Topics) Telemetry() string {
	return fmt.Sprintf("%s/telemetry", TopicPrefix)
}

// Refresh returns the topic on which an immediate poll can be requested.
// Any payload triggers a refresh.
//
// Example: mygren/refresh
func (Topics) Refresh() string {
	return fmt.Sprintf("%s/refresh", TopicPrefix)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllCommands returns a pattern matching every entity command topic,
// including the multi-suffix climate command topics.
//
// Pattern: mygren/+/+/#
//
// Handlers must filter on the "/set" suffix since this also matches
// state and attribute topics.
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/+/+/#", TopicPrefix)
}

// AllStates returns a pattern matching all entity state topics.
//
// Pattern: mygren/+/+/state
func (Topics) AllStates() string {
	return fmt.Sprintf("%s/+/+/state", TopicPrefix)
}

// =============================================================================
// Discovery Topics
// =============================================================================

// DiscoveryConfig returns the Home Assistant MQTT discovery topic for
// an entity. The prefix is configurable and defaults to "homeassistant".
//
// Example: homeassistant/climate/mygren_heatpump/heat_pump/config
func (Topics) DiscoveryConfig(prefix, component, nodeID, objectID string) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", prefix, component, nodeID, objectID)
}
