package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteTelemetry writes a heat pump telemetry snapshot to InfluxDB.
//
// Only numeric and boolean values from the document are recorded; strings
// and nested structures are skipped. Booleans are written as 0/1 integers
// so they can be graphed alongside numeric fields.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: Identifier tag for the heat pump (e.g., "mygren_heatpump")
//   - telemetry: The raw telemetry document keyed by register name
//
// Example:
//
//	client.WriteTelemetry("mygren_heatpump", map[string]any{
//	    "Tint": 21.5, "Tout": 4.2, "hp_enabled": true,
//	})
func (c *Client) WriteTelemetry(deviceID string, telemetry map[string]any) {
	if !c.IsConnected() {
		return
	}

	fields := make(map[string]interface{}, len(telemetry))
	for key, raw := range telemetry {
		switch v := raw.(type) {
		case float64:
			fields[key] = v
		case float32:
			fields[key] = float64(v)
		case int:
			fields[key] = float64(v)
		case int64:
			fields[key] = float64(v)
		case bool:
			if v {
				fields[key] = 1
			} else {
				fields[key] = 0
			}
		}
	}
	if len(fields) == 0 {
		return
	}

	point := write.NewPoint(
		"heatpump",
		map[string]string{
			"device_id": deviceID,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteMetric writes a single named measurement for the heat pump.
//
// Use for derived values that are not part of the raw telemetry document,
// such as poll durations or command latencies.
//
// Parameters:
//   - deviceID: Identifier tag for the heat pump
//   - metric: The metric name (e.g., "poll_duration_ms")
//   - value: The numeric value to record
func (c *Client) WriteMetric(deviceID string, metric string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"bridge_metrics",
		map[string]string{
			"device_id": deviceID,
			"metric":    metric,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("bridge_stats",
//	    map[string]string{"host": "bridge-01"},
//	    map[string]interface{}{"poll_failures": 2, "uptime_s": 3600})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
