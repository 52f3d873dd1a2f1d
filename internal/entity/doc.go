// Package entity projects heat pump telemetry into typed entities and
// routes commands back to the API client.
//
// Entities are read projections of the latest telemetry snapshot plus
// thin command methods. The Registry holds them, tracks the latest
// snapshot and availability from the coordinator, and dispatches
// commands; after a successful command it requests an out-of-band poll
// so optimistic state is confirmed quickly.
//
// Two entity kinds carry optimistic latches so external consumers see
// commanded state before the next poll:
//
//   - Switch: the latch clears when any fresh snapshot arrives.
//   - Number: the device applies some values slowly (curve changes take
//     several control cycles), so the latch clears only when a polled
//     value confirms the pending one.
//
// The catalogue is a representative set of the heat pump's registers,
// not an exhaustive one.
package entity
