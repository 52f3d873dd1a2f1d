package entity

import "errors"

// Sentinel errors for entity operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound is returned when no entity has the requested id.
	ErrNotFound = errors.New("entity: not found")

	// ErrDuplicateID is returned when registering an id twice.
	ErrDuplicateID = errors.New("entity: duplicate id")

	// ErrNoTelemetry is returned when state is requested before the first
	// successful poll.
	ErrNoTelemetry = errors.New("entity: no telemetry snapshot yet")

	// ErrReadOnly is returned when a command targets a sensor.
	ErrReadOnly = errors.New("entity: read-only entity")

	// ErrUnknownCommand is returned for a command name the entity does
	// not support.
	ErrUnknownCommand = errors.New("entity: unknown command")

	// ErrInvalidValue is returned for a command value of the wrong type.
	ErrInvalidValue = errors.New("entity: invalid command value")

	// ErrOutOfRange is returned when a setpoint falls outside the bounds
	// reported by the device.
	ErrOutOfRange = errors.New("entity: value out of range")
)
