// Package mqtt provides the MQTT transport for the Mygren bridge.
//
// It wraps paho.mqtt.golang with connection lifecycle management,
// automatic reconnection with subscription restoration, panic-safe message
// handlers, and topic builders for the bridge's topic hierarchy.
//
// Topic scheme:
//
//	mygren/{component}/{object_id}/state     entity state (retained)
//	mygren/{component}/{object_id}/set       entity commands (inbound)
//	mygren/status                            bridge availability (LWT)
//	mygren/telemetry                         full raw telemetry document
//	mygren/refresh                           request an immediate poll
//
// Home Assistant discovery config topics are built with
// Topics{}.DiscoveryConfig under the configurable discovery prefix.
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.EntityState("sensor", "outdoor_temperature")
//	client.PublishRetained(topic, []byte("4.5"))
package mqtt
