package hass

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/mygren-bridge/internal/entity"
	"github.com/nerrad567/mygren-bridge/internal/infrastructure/config"
	"github.com/nerrad567/mygren-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/mygren-bridge/internal/mygren"
)

// commandTimeout bounds a single entity command, including the heat
// pump round trips behind it.
const commandTimeout = 20 * time.Second

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// PublishString sends a plain string payload to a topic.
	PublishString(topic, payload string, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// EntityRegistry is the entity surface the bridge publishes and
// dispatches against. Satisfied by *entity.Registry.
type EntityRegistry interface {
	List() []entity.Entity
	Command(ctx context.Context, id string, cmd entity.Command) error
}

// Refresher requests an immediate out-of-band poll.
// Satisfied by *coordinator.Coordinator.
type Refresher interface {
	RequestRefresh()
}

// Logger is the optional structured logger interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// BridgeOptions holds configuration for creating a bridge.
type BridgeOptions struct {
	// MQTTClient is the MQTT client implementation.
	MQTTClient MQTTClient

	// Registry holds the entities to publish and command.
	Registry EntityRegistry

	// Refresher is poked when a refresh is requested over MQTT.
	// Optional.
	Refresher Refresher

	// Discovery controls Home Assistant MQTT discovery publishing.
	Discovery config.DiscoveryConfig

	// QoS is the quality-of-service level for bridge publishes.
	QoS byte

	// Logger is optional structured logger.
	Logger Logger
}

// Bridge publishes entity states to MQTT and dispatches incoming
// command payloads back through the entity registry.
//
// It implements coordinator.Listener; register it on the coordinator
// after calling Start.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	mqtt      MQTTClient
	registry  EntityRegistry
	refresher Refresher
	discovery config.DiscoveryConfig
	qos       byte
	topics    mqtt.Topics

	// Last published payload per topic, for change suppression.
	published   map[string]string
	publishedMu sync.Mutex

	discoverOnce sync.Once

	ctx       context.Context
	ctxCancel context.CancelFunc
	stopOnce  sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

// NewBridge creates a new bridge instance.
// Call Start() to begin operation.
func NewBridge(opts BridgeOptions) (*Bridge, error) {
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("entity registry is required")
	}

	ctx, ctxCancel := context.WithCancel(context.Background())

	return &Bridge{
		mqtt:      opts.MQTTClient,
		registry:  opts.Registry,
		refresher: opts.Refresher,
		discovery: opts.Discovery,
		qos:       opts.QoS,
		published: make(map[string]string),
		ctx:       ctx,
		ctxCancel: ctxCancel,
		logger:    opts.Logger,
	}, nil
}

// Start subscribes to the command and refresh topics.
// State publishing begins with the first OnTelemetry call.
func (b *Bridge) Start() error {
	commandTopic := b.topics.AllCommands()
	if err := b.mqtt.Subscribe(commandTopic, b.qos, b.handleMessage); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logInfo("subscribed to commands", "topic", commandTopic)

	refreshTopic := b.topics.Refresh()
	if err := b.mqtt.Subscribe(refreshTopic, b.qos, b.handleRefresh); err != nil {
		return fmt.Errorf("subscribe to refresh: %w", err)
	}

	return nil
}

// Stop cancels in-flight commands. MQTT unsubscription and the offline
// availability publish are handled by the MQTT client's Close.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.ctxCancel()
		b.logInfo("bridge stopped")
	})
}

// =============================================================================
// coordinator.Listener
// =============================================================================

// OnTelemetry publishes entity states, the raw telemetry document, and
// online availability. Discovery configs go out on the first call.
func (b *Bridge) OnTelemetry(tel mygren.Telemetry) {
	if b.discovery.Enabled {
		b.discoverOnce.Do(func() {
			b.publishDiscovery(tel)
		})
	}

	b.publishAvailability(mqtt.PayloadOnline)
	b.publishTelemetry(tel)
	b.publishStates(tel)
}

// OnUpdateFailed publishes offline availability; Home Assistant marks
// every entity unavailable until the next successful poll.
func (b *Bridge) OnUpdateFailed(err error) {
	b.logWarn("poll failed, marking bridge offline", "error", err)
	b.publishAvailability(mqtt.PayloadOffline)
}

// =============================================================================
// Publishing
// =============================================================================

func (b *Bridge) publishAvailability(payload string) {
	topic := b.topics.Availability()
	if !b.shouldPublish(topic, payload) {
		return
	}
	if err := b.mqtt.PublishString(topic, payload, b.qos, true); err != nil {
		b.logError("failed to publish availability", err)
		b.forgetPublished(topic)
	}
}

func (b *Bridge) publishTelemetry(tel mygren.Telemetry) {
	payload, err := json.Marshal(tel)
	if err != nil {
		b.logError("failed to marshal telemetry", err)
		return
	}

	topic := b.topics.Telemetry()
	if !b.shouldPublish(topic, string(payload)) {
		return
	}
	if err := b.mqtt.Publish(topic, payload, b.qos, true); err != nil {
		b.logError("failed to publish telemetry", err)
		b.forgetPublished(topic)
	}
}

// publishStates projects every entity through the snapshot and publishes
// the changed ones as retained JSON documents.
func (b *Bridge) publishStates(tel mygren.Telemetry) {
	for _, e := range b.registry.List() {
		payload, err := json.Marshal(e.State(tel))
		if err != nil {
			b.logError("failed to marshal state", fmt.Errorf("entity %s: %w", e.ID(), err))
			continue
		}

		topic := b.topics.EntityState(string(e.Kind()), e.ID())
		if !b.shouldPublish(topic, string(payload)) {
			continue
		}
		if err := b.mqtt.Publish(topic, payload, b.qos, true); err != nil {
			b.logError("failed to publish state", fmt.Errorf("entity %s: %w", e.ID(), err))
			b.forgetPublished(topic)
		}
	}
}

// shouldPublish records the payload and reports whether it differs from
// the last one published on the topic.
func (b *Bridge) shouldPublish(topic, payload string) bool {
	b.publishedMu.Lock()
	defer b.publishedMu.Unlock()

	if b.published[topic] == payload {
		return false
	}
	b.published[topic] = payload
	return true
}

// forgetPublished drops the cache entry after a failed publish so the
// next snapshot retries.
func (b *Bridge) forgetPublished(topic string) {
	b.publishedMu.Lock()
	delete(b.published, topic)
	b.publishedMu.Unlock()
}

// =============================================================================
// Logging
// =============================================================================

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
}

func (b *Bridge) getLogger() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}

func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

func (b *Bridge) logError(msg string, err error) {
	if logger := b.getLogger(); logger != nil {
		logger.Error(msg, "error", err)
	}
}
