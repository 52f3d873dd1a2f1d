// Package api provides the HTTP REST API and WebSocket server for the
// Mygren bridge.
//
// It exposes entity states and commands, the raw telemetry snapshot,
// poller health, and heat pump diagnostics passthroughs to local
// consumers (dashboards, scripts, other services on the LAN).
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Like the heat pump's own REST interface, the API is expected to live
// on a trusted network segment; there is no authentication layer.
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
package api
