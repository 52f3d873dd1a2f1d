// Package influxdb provides optional time-series export of heat pump
// telemetry to InfluxDB v2.
//
// Each poll cycle's telemetry document can be written as a single point
// in the "heatpump" measurement, with numeric and boolean registers as
// fields. Writes are non-blocking and batched by the underlying client;
// async write failures are surfaced via SetOnError.
//
// Export is disabled by default. When cfg.InfluxDB.Enabled is false,
// Connect returns ErrDisabled and the bridge runs without export.
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteTelemetry("mygren_heatpump", telemetry)
package influxdb
