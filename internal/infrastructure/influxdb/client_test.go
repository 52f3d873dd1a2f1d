package influxdb

import (
	"context"
	"errors"
	"testing"

	"github.com/nerrad567/mygren-bridge/internal/infrastructure/config"
)

// =============================================================================
// Connect Tests
// =============================================================================

func TestConnectDisabled(t *testing.T) {
	cfg := config.InfluxDBConfig{
		Enabled: false,
	}

	_, err := Connect(cfg)
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

// =============================================================================
// Lifecycle Tests
// =============================================================================

func TestCloseNeverConnected(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

func TestIsConnectedDefault(t *testing.T) {
	client := &Client{}
	if client.IsConnected() {
		t.Error("IsConnected() = true for zero-value client, want false")
	}
}

func TestHealthCheckDisconnected(t *testing.T) {
	client := &Client{}

	err := client.HealthCheck(context.Background())
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

// =============================================================================
// Write Tests
// =============================================================================

// Writes on a disconnected client must be silent no-ops. A panic here would
// take down the poll loop when export is unavailable.

func TestWriteTelemetryDisconnected(t *testing.T) {
	client := &Client{}
	client.WriteTelemetry("mygren_heatpump", map[string]any{"Tint": 21.5})
}

func TestWriteMetricDisconnected(t *testing.T) {
	client := &Client{}
	client.WriteMetric("mygren_heatpump", "poll_duration_ms", 120)
}

func TestWritePointDisconnected(t *testing.T) {
	client := &Client{}
	client.WritePoint("bridge_stats", nil, map[string]interface{}{"uptime_s": 1})
}

func TestFlushDisconnected(t *testing.T) {
	client := &Client{}
	client.Flush()
}
