// Package logging provides structured logging for the Mygren bridge.
//
// Built on Go's log/slog, it produces JSON logs for production and
// human-readable text logs for development. Every log line carries the
// service name and version as default attributes so aggregated logs can
// be filtered per deployment.
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("bridge started", "broker", cfg.MQTT.Broker.Host)
//
//	// Component-scoped loggers
//	coordLogger := logger.With("component", "coordinator")
//
// Before configuration is loaded, use Default() for early startup logging.
package logging
