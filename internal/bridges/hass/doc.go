// Package hass bridges heat pump entities onto MQTT for Home Assistant.
//
// The bridge is a coordinator listener: every telemetry snapshot is
// projected through the entity registry and published as retained JSON
// state documents under mygren/{component}/{object_id}/state. Commands
// arrive on the matching .../set topics and are dispatched back through
// the registry.
//
// When discovery is enabled, Home Assistant discovery configs are
// published once, after the first successful poll, so the payloads can
// carry the device's real setpoint bounds and firmware version.
//
// Availability is a single bridge-level topic (mygren/status) shared by
// all entities; the MQTT client's LWT covers unexpected disconnects and
// the bridge publishes "offline" while polling fails.
package hass
