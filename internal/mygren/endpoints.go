package mygren

import "strings"

// API endpoints exposed by MaR v4+ firmware.
const (
	EndpointLogin     = "/api/login"
	EndpointTelemetry = "/api/telemetry"
	EndpointResources = "/api/resources"
	EndpointDaemonLog = "/api/daemonlog"
	EndpointRunLog    = "/api/runlog"

	// TUV (teplá užitková voda) - domestic hot water
	EndpointTUVSet              = "/api/tuv/set"
	EndpointTUVEnabled          = "/api/tuv/enabled"
	EndpointTUVSchedulerEnabled = "/api/tuv/scheduler/enabled"

	// Heating program
	EndpointProgramProgram          = "/api/program/program"
	EndpointProgramCurve            = "/api/program/curve"
	EndpointProgramShift            = "/api/program/shift"
	EndpointProgramManual           = "/api/program/manual"
	EndpointProgramComfort          = "/api/program/comfort"
	EndpointProgramSchedulerEnabled = "/api/program/scheduler/enabled"

	// Heat pump unit
	EndpointHeatpumpEnabled     = "/api/heatpump/enabled"
	EndpointHeatpumpTariffWatch = "/api/heatpump/tariff/watch"
)

// endpointKey extracts the last path segment from an API endpoint.
//
// The Mygren API expects PUT payloads as {"<last_segment>": value}:
//
//	/api/tuv/set               -> "set"
//	/api/tuv/enabled           -> "enabled"
//	/api/program/curve         -> "curve"
//	/api/heatpump/tariff/watch -> "watch"
//
// Trailing slashes are stripped before the split.
func endpointKey(endpoint string) string {
	trimmed := strings.TrimRight(endpoint, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
