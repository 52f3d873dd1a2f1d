// Package coordinator runs the heat pump poll loop.
//
// A single goroutine fetches GET /api/telemetry on a fixed interval
// (default 30s) and fans each successful snapshot out to registered
// listeners in registration order, synchronously within the poll. An auth
// error during a poll triggers one re-authentication and one retried
// fetch; any other failure, or the retry failing, marks the update as
// failed without stopping the loop.
//
// Out-of-band refreshes (after commands) are requested via
// RequestRefresh and trigger an immediate poll without disturbing the
// ticker cadence.
//
// Usage:
//
//	coord := coordinator.New(client, cfg.HeatPump.GetScanInterval())
//	coord.AddListener(bridge)
//	if err := coord.Start(ctx); err != nil {
//	    return err
//	}
package coordinator
