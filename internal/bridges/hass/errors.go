package hass

import "errors"

var (
	// ErrInvalidTopic indicates a command arrived on a topic that does
	// not match the expected mygren/{component}/{object_id}/... shape.
	ErrInvalidTopic = errors.New("hass: invalid command topic")

	// ErrInvalidPayload indicates a command payload could not be parsed
	// for the target entity.
	ErrInvalidPayload = errors.New("hass: invalid command payload")
)
