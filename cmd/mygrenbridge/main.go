// Mygren Bridge - heat pump integration daemon
//
// This is the main entry point for the Mygren bridge. The bridge polls a
// Mygren heat pump's local REST API and exposes it three ways:
//   - MQTT state topics with Home Assistant discovery
//   - A local HTTP/WebSocket API
//   - Optional InfluxDB telemetry export
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/mygren-bridge/internal/api"
	"github.com/nerrad567/mygren-bridge/internal/bridges/hass"
	"github.com/nerrad567/mygren-bridge/internal/coordinator"
	"github.com/nerrad567/mygren-bridge/internal/entity"
	"github.com/nerrad567/mygren-bridge/internal/infrastructure/config"
	"github.com/nerrad567/mygren-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/mygren-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/mygren-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/mygren-bridge/internal/mygren"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Mygren bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Heat pump client
	pump := mygren.New(cfg.HeatPump)
	pump.SetLogger(log)
	log.Info("heat pump client created",
		"host", pump.Host(),
		"verify_ssl", cfg.HeatPump.VerifySSL,
	)

	// Polling coordinator. Listeners are registered before Start so the
	// first snapshot fans out to every consumer.
	coord := coordinator.New(pump, cfg.GetScanInterval())
	coord.SetLogger(log)

	// Entity registry
	registry := entity.NewRegistry(coord)
	if err := registerEntities(registry, pump); err != nil {
		return fmt.Errorf("registering entities: %w", err)
	}
	coord.AddListener(registry)
	log.Info("entity registry initialised", "entities", len(registry.List()))

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Home Assistant bridge
	hassBridge, err := hass.NewBridge(hass.BridgeOptions{
		MQTTClient: &mqttHassAdapter{client: mqttClient},
		Registry:   registry,
		Refresher:  coord,
		Discovery:  cfg.Discovery,
		QoS:        byte(cfg.MQTT.QoS),
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("creating Home Assistant bridge: %w", err)
	}
	if err := hassBridge.Start(); err != nil {
		return fmt.Errorf("starting Home Assistant bridge: %w", err)
	}
	defer func() {
		log.Info("stopping Home Assistant bridge")
		hassBridge.Stop()
	}()
	coord.AddListener(hassBridge)
	log.Info("Home Assistant bridge started", "discovery", cfg.Discovery.Enabled)

	// HTTP/WebSocket API
	apiServer, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Logger:   log,
		Registry: registry,
		Poller:   coord,
		Pump:     pump,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	coord.AddListener(apiServer)
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		coord.AddListener(&influxExporter{
			client:   influxClient,
			deviceID: cfg.Discovery.NodeID,
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start polling. The first poll is blocking, so startup fails fast on
	// bad credentials or an unreachable heat pump.
	if err := coord.Start(ctx); err != nil {
		return fmt.Errorf("starting coordinator: %w", err)
	}
	log.Info("coordinator started", "interval", cfg.GetScanInterval())

	if err := healthCheck(ctx, mqttClient, influxClient, apiServer); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. InfluxDB (if enabled)
	// 2. API server
	// 3. Home Assistant bridge
	// 4. MQTT

	log.Info("Mygren bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses MYGREN_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("MYGREN_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// registerEntities populates the registry with the full entity catalogue.
// The heat pump client satisfies entity.Controller for the writable kinds.
func registerEntities(registry *entity.Registry, pump *mygren.Client) error {
	entities := []entity.Entity{
		entity.NewClimate(pump),
		entity.NewWaterHeater(pump),
	}
	for _, sw := range entity.NewSwitches(pump) {
		entities = append(entities, sw)
	}
	for _, num := range entity.NewNumbers(pump) {
		entities = append(entities, num)
	}
	for _, sensor := range entity.NewSensors() {
		entities = append(entities, sensor)
	}
	for _, sensor := range entity.NewBinarySensors() {
		entities = append(entities, sensor)
	}
	return registry.Add(entities...)
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client, apiServer *api.Server) error {
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	if err := apiServer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	// Heat pump health is verified by the coordinator's blocking first
	// poll during Start.

	return nil
}

// mqttHassAdapter adapts the infrastructure MQTT client to the Home
// Assistant bridge's MQTTClient interface. The infrastructure client's
// Subscribe takes the named mqtt.MessageHandler type, which does not
// satisfy the bridge's unnamed handler signature directly.
type mqttHassAdapter struct {
	client *mqtt.Client
}

// Publish implements hass.MQTTClient.
func (a *mqttHassAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// PublishString implements hass.MQTTClient.
func (a *mqttHassAdapter) PublishString(topic, payload string, qos byte, retained bool) error {
	return a.client.PublishString(topic, payload, qos, retained)
}

// Subscribe implements hass.MQTTClient.
func (a *mqttHassAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error {
	return a.client.Subscribe(topic, qos, handler)
}

// IsConnected implements hass.MQTTClient.
func (a *mqttHassAdapter) IsConnected() bool {
	return a.client.IsConnected()
}

// influxExporter forwards telemetry snapshots to InfluxDB. It implements
// coordinator.Listener; failed polls produce nothing to write.
type influxExporter struct {
	client   *influxdb.Client
	deviceID string
}

// OnTelemetry implements coordinator.Listener.
func (e *influxExporter) OnTelemetry(tel mygren.Telemetry) {
	e.client.WriteTelemetry(e.deviceID, tel)
}

// OnUpdateFailed implements coordinator.Listener.
func (*influxExporter) OnUpdateFailed(error) {}
