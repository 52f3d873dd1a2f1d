package hass

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nerrad567/mygren-bridge/internal/entity"
)

// handleMessage routes incoming MQTT messages on the command wildcard.
// The wildcard also matches state and attribute topics (and the
// bridge's own retained publishes echoed back by some brokers), so
// anything without a trailing "set" segment is silently ignored.
func (b *Bridge) handleMessage(topic string, payload []byte) error {
	parts := strings.Split(topic, "/")
	if parts[len(parts)-1] != "set" {
		return nil
	}

	component, objectID, cmd, err := parseCommand(parts, payload)
	if err != nil {
		b.logWarn("rejected command", "topic", topic, "error", err)
		return err
	}

	b.logDebug("received command",
		"entity", objectID,
		"command", cmd.Name,
		"value", cmd.Value)

	ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
	defer cancel()

	if err := b.registry.Command(ctx, objectID, cmd); err != nil {
		b.logError("command failed",
			fmt.Errorf("%s/%s %s: %w", component, objectID, cmd.Name, err))
		return err
	}
	return nil
}

// handleRefresh requests an immediate poll; the payload is ignored.
func (b *Bridge) handleRefresh(_ string, _ []byte) error {
	if b.refresher != nil {
		b.refresher.RequestRefresh()
	}
	return nil
}

// parseCommand maps a topic and payload onto an entity command.
//
// Topic shapes:
//
//	mygren/{component}/{object_id}/set              plain command
//	mygren/{component}/{object_id}/mode/set         climate mode / water heater operation
//	mygren/{component}/{object_id}/temperature/set  target temperature
func parseCommand(parts []string, payload []byte) (component, objectID string, cmd entity.Command, err error) {
	const (
		plainParts    = 4
		suffixedParts = 5
	)

	if len(parts) != plainParts && len(parts) != suffixedParts {
		return "", "", cmd, fmt.Errorf("%w: %s", ErrInvalidTopic, strings.Join(parts, "/"))
	}
	component, objectID = parts[1], parts[2]

	value := strings.TrimSpace(string(payload))

	if len(parts) == suffixedParts {
		switch parts[3] {
		case "mode":
			name := entity.CommandSetMode
			if component == string(entity.KindWaterHeater) {
				name = entity.CommandSetOperation
			}
			cmd = entity.Command{Name: name, Value: strings.ToLower(value)}
			return component, objectID, cmd, nil

		case "temperature":
			temperature, parseErr := strconv.ParseFloat(value, 64)
			if parseErr != nil {
				return "", "", cmd, fmt.Errorf("%w: temperature %q", ErrInvalidPayload, value)
			}
			cmd = entity.Command{Name: entity.CommandSetTemperature, Value: temperature}
			return component, objectID, cmd, nil

		default:
			return "", "", cmd, fmt.Errorf("%w: unknown channel %q", ErrInvalidTopic, parts[3])
		}
	}

	switch component {
	case string(entity.KindSwitch):
		on, parseErr := parseOnOff(value)
		if parseErr != nil {
			return "", "", cmd, parseErr
		}
		name := entity.CommandTurnOff
		if on {
			name = entity.CommandTurnOn
		}
		cmd = entity.Command{Name: name}
		return component, objectID, cmd, nil

	case string(entity.KindNumber):
		number, parseErr := strconv.ParseFloat(value, 64)
		if parseErr != nil {
			return "", "", cmd, fmt.Errorf("%w: number %q", ErrInvalidPayload, value)
		}
		cmd = entity.Command{Name: entity.CommandSetValue, Value: number}
		return component, objectID, cmd, nil

	default:
		return "", "", cmd, fmt.Errorf("%w: component %q has no plain command", ErrInvalidTopic, component)
	}
}

// parseOnOff accepts the payload forms Home Assistant and the wire
// format produce for booleans.
func parseOnOff(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: on/off %q", ErrInvalidPayload, value)
	}
}
