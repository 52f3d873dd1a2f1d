package hass

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/nerrad567/mygren-bridge/internal/entity"
	"github.com/nerrad567/mygren-bridge/internal/infrastructure/config"
	"github.com/nerrad567/mygren-bridge/internal/mygren"
)

// MockMQTTClient implements MQTTClient for testing.
type MockMQTTClient struct {
	mu            sync.Mutex
	published     []mockPublish
	subscriptions []string
	connected     bool
	handlers      map[string]func(topic string, payload []byte) error
}

type mockPublish struct {
	Topic    string
	Payload  []byte
	Retained bool
}

func NewMockMQTTClient() *MockMQTTClient {
	return &MockMQTTClient{
		connected: true,
		handlers:  make(map[string]func(topic string, payload []byte) error),
	}
}

func (m *MockMQTTClient) Publish(topic string, payload []byte, _ byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, mockPublish{Topic: topic, Payload: payload, Retained: retained})
	return nil
}

func (m *MockMQTTClient) PublishString(topic, payload string, qos byte, retained bool) error {
	return m.Publish(topic, []byte(payload), qos, retained)
}

func (m *MockMQTTClient) Subscribe(topic string, _ byte, handler func(topic string, payload []byte) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = append(m.subscriptions, topic)
	m.handlers[topic] = handler
	return nil
}

func (m *MockMQTTClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockMQTTClient) GetPublished() []mockPublish {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mockPublish, len(m.published))
	copy(out, m.published)
	return out
}

func (m *MockMQTTClient) ClearPublished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = nil
}

// FindPublished returns the last payload published on a topic.
func (m *MockMQTTClient) FindPublished(topic string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.published) - 1; i >= 0; i-- {
		if m.published[i].Topic == topic {
			return m.published[i].Payload, true
		}
	}
	return nil, false
}

// SimulateMessage delivers a message to the subscription handler whose
// pattern covers the topic.
func (m *MockMQTTClient) SimulateMessage(topic string, payload []byte) error {
	m.mu.Lock()
	var handler func(string, []byte) error
	for pattern, h := range m.handlers {
		if patternMatches(pattern, topic) {
			handler = h
			break
		}
	}
	m.mu.Unlock()

	if handler == nil {
		return nil
	}
	return handler(topic, payload)
}

// patternMatches implements MQTT wildcard matching for the mock.
func patternMatches(pattern, topic string) bool {
	pp := strings.Split(pattern, "/")
	tp := strings.Split(topic, "/")

	for i, part := range pp {
		if part == "#" {
			return true
		}
		if i >= len(tp) {
			return false
		}
		if part != "+" && part != tp[i] {
			return false
		}
	}
	return len(pp) == len(tp)
}

// mockRegistry records dispatched commands.
type mockRegistry struct {
	mu       sync.Mutex
	entities []entity.Entity
	commands []dispatchedCommand
	err      error
}

type dispatchedCommand struct {
	ID      string
	Command entity.Command
}

func (r *mockRegistry) List() []entity.Entity { return r.entities }

func (r *mockRegistry) Command(_ context.Context, id string, cmd entity.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.commands = append(r.commands, dispatchedCommand{ID: id, Command: cmd})
	return nil
}

func (r *mockRegistry) dispatched() []dispatchedCommand {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]dispatchedCommand, len(r.commands))
	copy(out, r.commands)
	return out
}

type mockRefresher struct {
	mu    sync.Mutex
	count int
}

func (m *mockRefresher) RequestRefresh() {
	m.mu.Lock()
	m.count++
	m.mu.Unlock()
}

func (m *mockRefresher) refreshCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

func testDiscoveryConfig() config.DiscoveryConfig {
	return config.DiscoveryConfig{
		Enabled:    true,
		Prefix:     "homeassistant",
		NodeID:     "mygren_heatpump",
		DeviceName: "Mygren Heat Pump",
	}
}

func testSnapshot() mygren.Telemetry {
	return mygren.Telemetry{
		"hp_enabled":         true,
		"program":            "Manual_comfort",
		"available_programs": []string{"Off", "Manual_comfort", "Cooling_comfort"},
		"Tint":               21.5,
		"comfort":            22.0,
		"heating":            true,
		"compressor":         true,
		"tuv_enabled":        true,
		"Ttuv":               47.0,
		"tuv_set":            48.0,
		"curve":              3.0,
		"shift":              -2.0,
		"tuv_sched_enabled":  true,
		"mar_version":        "4.2.1",
	}
}

func newTestBridge(t *testing.T, client *MockMQTTClient, registry EntityRegistry, refresher Refresher) *Bridge {
	t.Helper()

	bridge, err := NewBridge(BridgeOptions{
		MQTTClient: client,
		Registry:   registry,
		Refresher:  refresher,
		Discovery:  testDiscoveryConfig(),
		QoS:        1,
	})
	if err != nil {
		t.Fatalf("NewBridge() error = %v", err)
	}
	return bridge
}

func buildEntities(controller entity.Controller) []entity.Entity {
	entities := []entity.Entity{
		entity.NewClimate(controller),
		entity.NewWaterHeater(controller),
	}
	for _, sw := range entity.NewSwitches(controller) {
		entities = append(entities, sw)
	}
	for _, num := range entity.NewNumbers(controller) {
		entities = append(entities, num)
	}
	for _, s := range entity.NewSensors() {
		entities = append(entities, s)
	}
	for _, bs := range entity.NewBinarySensors() {
		entities = append(entities, bs)
	}
	return entities
}

// =============================================================================
// Construction
// =============================================================================

func TestNewBridgeValidation(t *testing.T) {
	if _, err := NewBridge(BridgeOptions{Registry: &mockRegistry{}}); err == nil {
		t.Error("NewBridge() without MQTT client should fail")
	}
	if _, err := NewBridge(BridgeOptions{MQTTClient: NewMockMQTTClient()}); err == nil {
		t.Error("NewBridge() without registry should fail")
	}
}

func TestStartSubscribes(t *testing.T) {
	client := NewMockMQTTClient()
	bridge := newTestBridge(t, client, &mockRegistry{}, nil)

	if err := bridge.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	want := map[string]bool{"mygren/+/+/#": false, "mygren/refresh": false}
	for _, topic := range client.subscriptions {
		if _, ok := want[topic]; ok {
			want[topic] = true
		}
	}
	for topic, seen := range want {
		if !seen {
			t.Errorf("missing subscription to %s", topic)
		}
	}
}

// =============================================================================
// State Publishing
// =============================================================================

func TestOnTelemetryPublishesStates(t *testing.T) {
	client := NewMockMQTTClient()
	registry := &mockRegistry{entities: buildEntities(&nopController{})}
	bridge := newTestBridge(t, client, registry, nil)

	bridge.OnTelemetry(testSnapshot())

	payload, ok := client.FindPublished("mygren/climate/heat_pump/state")
	if !ok {
		t.Fatal("climate state not published")
	}

	var state map[string]any
	if err := json.Unmarshal(payload, &state); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if state["state"] != "heat" {
		t.Errorf("climate state = %v, want heat", state["state"])
	}

	if _, ok := client.FindPublished("mygren/telemetry"); !ok {
		t.Error("telemetry document not published")
	}

	if payload, ok := client.FindPublished("mygren/status"); !ok || string(payload) != "online" {
		t.Errorf("availability = %q, want online", payload)
	}
}

func TestOnTelemetrySuppressesUnchangedStates(t *testing.T) {
	client := NewMockMQTTClient()
	registry := &mockRegistry{entities: buildEntities(&nopController{})}
	bridge := newTestBridge(t, client, registry, nil)

	snapshot := testSnapshot()
	bridge.OnTelemetry(snapshot)
	client.ClearPublished()

	bridge.OnTelemetry(snapshot)
	if published := client.GetPublished(); len(published) != 0 {
		topics := make([]string, 0, len(published))
		for _, p := range published {
			topics = append(topics, p.Topic)
		}
		t.Errorf("republished unchanged payloads: %v", topics)
	}
}

func TestOnUpdateFailedPublishesOffline(t *testing.T) {
	client := NewMockMQTTClient()
	bridge := newTestBridge(t, client, &mockRegistry{}, nil)

	bridge.OnUpdateFailed(context.DeadlineExceeded)

	payload, ok := client.FindPublished("mygren/status")
	if !ok || string(payload) != "offline" {
		t.Errorf("availability = %q, want offline", payload)
	}
}

func TestAvailabilityRecoversAfterFailure(t *testing.T) {
	client := NewMockMQTTClient()
	registry := &mockRegistry{entities: buildEntities(&nopController{})}
	bridge := newTestBridge(t, client, registry, nil)

	bridge.OnTelemetry(testSnapshot())
	bridge.OnUpdateFailed(context.DeadlineExceeded)
	client.ClearPublished()

	bridge.OnTelemetry(testSnapshot())

	payload, ok := client.FindPublished("mygren/status")
	if !ok || string(payload) != "online" {
		t.Errorf("availability = %q, want online after recovery", payload)
	}
}

// =============================================================================
// Command Dispatch
// =============================================================================

func TestCommandDispatch(t *testing.T) {
	tests := []struct {
		name     string
		topic    string
		payload  string
		wantID   string
		wantName string
		wantVal  any
	}{
		{
			name:     "switch on",
			topic:    "mygren/switch/tariff_watch/set",
			payload:  "ON",
			wantID:   "tariff_watch",
			wantName: entity.CommandTurnOn,
		},
		{
			name:     "switch off",
			topic:    "mygren/switch/tariff_watch/set",
			payload:  "OFF",
			wantID:   "tariff_watch",
			wantName: entity.CommandTurnOff,
		},
		{
			name:     "number value",
			topic:    "mygren/number/curve/set",
			payload:  "5",
			wantID:   "curve",
			wantName: entity.CommandSetValue,
			wantVal:  5.0,
		},
		{
			name:     "climate mode",
			topic:    "mygren/climate/heat_pump/mode/set",
			payload:  "cool",
			wantID:   "heat_pump",
			wantName: entity.CommandSetMode,
			wantVal:  "cool",
		},
		{
			name:     "climate temperature",
			topic:    "mygren/climate/heat_pump/temperature/set",
			payload:  "21.5",
			wantID:   "heat_pump",
			wantName: entity.CommandSetTemperature,
			wantVal:  21.5,
		},
		{
			name:     "water heater operation",
			topic:    "mygren/water_heater/domestic_hot_water/mode/set",
			payload:  "auto",
			wantID:   "domestic_hot_water",
			wantName: entity.CommandSetOperation,
			wantVal:  "auto",
		},
		{
			name:     "water heater temperature",
			topic:    "mygren/water_heater/domestic_hot_water/temperature/set",
			payload:  "45",
			wantID:   "domestic_hot_water",
			wantName: entity.CommandSetTemperature,
			wantVal:  45.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewMockMQTTClient()
			registry := &mockRegistry{}
			bridge := newTestBridge(t, client, registry, nil)
			if err := bridge.Start(); err != nil {
				t.Fatalf("Start() error = %v", err)
			}

			if err := client.SimulateMessage(tt.topic, []byte(tt.payload)); err != nil {
				t.Fatalf("handler error = %v", err)
			}

			dispatched := registry.dispatched()
			if len(dispatched) != 1 {
				t.Fatalf("dispatched %d commands, want 1", len(dispatched))
			}
			got := dispatched[0]
			if got.ID != tt.wantID {
				t.Errorf("entity = %q, want %q", got.ID, tt.wantID)
			}
			if got.Command.Name != tt.wantName {
				t.Errorf("command = %q, want %q", got.Command.Name, tt.wantName)
			}
			if tt.wantVal != nil && got.Command.Value != tt.wantVal {
				t.Errorf("value = %v, want %v", got.Command.Value, tt.wantVal)
			}
		})
	}
}

func TestNonCommandTopicsIgnored(t *testing.T) {
	client := NewMockMQTTClient()
	registry := &mockRegistry{}
	bridge := newTestBridge(t, client, registry, nil)
	if err := bridge.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// The command wildcard also matches the bridge's own state topics.
	if err := client.SimulateMessage("mygren/climate/heat_pump/state", []byte(`{"state":"heat"}`)); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if len(registry.dispatched()) != 0 {
		t.Error("state topic dispatched a command")
	}
}

func TestInvalidPayloadRejected(t *testing.T) {
	client := NewMockMQTTClient()
	registry := &mockRegistry{}
	bridge := newTestBridge(t, client, registry, nil)
	if err := bridge.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	err := client.SimulateMessage("mygren/number/curve/set", []byte("not-a-number"))
	if err == nil {
		t.Error("expected error for unparseable number payload")
	}
	if len(registry.dispatched()) != 0 {
		t.Error("invalid payload dispatched a command")
	}
}

func TestRefreshTopic(t *testing.T) {
	client := NewMockMQTTClient()
	refresher := &mockRefresher{}
	bridge := newTestBridge(t, client, &mockRegistry{}, refresher)
	if err := bridge.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := client.SimulateMessage("mygren/refresh", []byte("1")); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if refresher.refreshCount() != 1 {
		t.Errorf("refresh count = %d, want 1", refresher.refreshCount())
	}
}

// nopController satisfies entity.Controller for projection-only tests.
type nopController struct{}

func (nopController) SetTUVTemperature(context.Context, int) error         { return nil }
func (nopController) SetTUVEnabled(context.Context, bool) error            { return nil }
func (nopController) SetTUVSchedulerEnabled(context.Context, bool) error   { return nil }
func (nopController) SetProgram(context.Context, string) error             { return nil }
func (nopController) SetCurve(context.Context, int) error                  { return nil }
func (nopController) SetShift(context.Context, int) error                  { return nil }
func (nopController) SetManualTemperature(context.Context, int) error      { return nil }
func (nopController) SetComfortTemperature(context.Context, int) error     { return nil }
func (nopController) SetProgramSchedulerEnabled(context.Context, bool) error { return nil }
func (nopController) SetHeatpumpEnabled(context.Context, bool) error       { return nil }
func (nopController) SetTariffWatch(context.Context, bool) error           { return nil }
