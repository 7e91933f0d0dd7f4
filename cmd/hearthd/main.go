// Hearth Core - Local Home Control Plane
//
// This is the main entry point for the Hearth Core daemon. Hearth sits
// between local clients and the smart-home hub, providing:
//   - A fuzzy-resolving entity registry over the hub's device inventory
//   - Bounded synchronous command execution over asynchronous hardware
//   - Context rules that react to the foreground application
//
// Everything runs locally; the daemon needs nothing beyond the MQTT broker
// it shares with the hub.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/emberhall/hearth-core/migrations"

	"github.com/emberhall/hearth-core/internal/api"
	"github.com/emberhall/hearth-core/internal/bridges/mqttha"
	"github.com/emberhall/hearth-core/internal/command"
	"github.com/emberhall/hearth-core/internal/events"
	"github.com/emberhall/hearth-core/internal/infrastructure/config"
	"github.com/emberhall/hearth-core/internal/infrastructure/database"
	"github.com/emberhall/hearth-core/internal/infrastructure/influxdb"
	"github.com/emberhall/hearth-core/internal/infrastructure/logging"
	"github.com/emberhall/hearth-core/internal/infrastructure/mqtt"
	"github.com/emberhall/hearth-core/internal/registry"
	"github.com/emberhall/hearth-core/internal/rules"
	"github.com/emberhall/hearth-core/internal/telemetry"
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

// inventoryLoadTimeout bounds the wait for the hub's retained inventory at
// startup. The hub may be offline; the registry stays empty and fills in
// when the inventory arrives.
const inventoryLoadTimeout = 10 * time.Second

// inventoryReloadTimeout bounds registry refreshes triggered by inventory
// updates. Reads serve from the adapter's cached snapshot, so this only
// trips if the snapshot was never populated.
const inventoryReloadTimeout = 5 * time.Second

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	// This is the Go pattern for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run the application
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Hearth Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
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

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

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

	// Start the hub adapter
	adapter := mqttha.NewAdapter(mqttClient, log)
	if startErr := adapter.Start(); startErr != nil {
		return fmt.Errorf("starting hub adapter: %w", startErr)
	}
	defer func() {
		log.Info("stopping hub adapter")
		adapter.Stop()
	}()

	// Initialise the entity registry over the adapter
	reg := registry.New(adapter)
	reg.SetLogger(log)

	// Refresh the registry whenever the hub publishes a new inventory.
	// The callback must not block the MQTT handler.
	adapter.SetOnDevicesChanged(func() {
		go func() {
			rctx, rcancel := context.WithTimeout(context.Background(), inventoryReloadTimeout)
			defer rcancel()
			if reloadErr := reg.ReloadDevices(rctx); reloadErr != nil {
				log.Warn("device registry reload failed", "error", reloadErr)
			}
		}()
	})
	adapter.SetOnScenesChanged(func() {
		go func() {
			rctx, rcancel := context.WithTimeout(context.Background(), inventoryReloadTimeout)
			defer rcancel()
			if reloadErr := reg.ReloadScenes(rctx); reloadErr != nil {
				log.Warn("scene registry reload failed", "error", reloadErr)
			}
		}()
	})

	// Initial inventory load. Failure here is not fatal: the hub may be
	// offline and its retained inventory arrives once it returns.
	loadCtx, loadCancel := context.WithTimeout(ctx, inventoryLoadTimeout)
	if loadErr := reg.ReloadDevices(loadCtx); loadErr != nil {
		log.Warn("device inventory not yet available", "error", loadErr)
	}
	if loadErr := reg.ReloadScenes(loadCtx); loadErr != nil {
		log.Warn("scene inventory not yet available", "error", loadErr)
	}
	loadCancel()
	log.Info("entity registry initialised",
		"devices", reg.DeviceCount(),
		"scenes", reg.SceneCount(),
	)

	// Command bridge bounds asynchronous hardware writes
	bridge := command.NewBridge(reg, adapter, command.Config{
		Timeout:     time.Duration(cfg.Control.WriteTimeout) * time.Second,
		SettleDelay: time.Duration(cfg.Control.SceneSettleDelay) * time.Millisecond,
	}, log)

	// WebSocket hub serves local clients; the event relay mirrors every
	// event onto hearth/core/event/{type} for external observers.
	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	relay := events.NewRelay(mqttClient, hub, reg, log)
	relay.Start(ctx)
	defer relay.Stop()

	// Context rule engine
	ruleRepo := rules.NewSQLiteRepository(db.DB)
	engine := rules.NewEngine(ruleRepo, rules.NewEffectFactory(bridge, reg), relay, log)
	if loadErr := engine.Load(ctx); loadErr != nil {
		return fmt.Errorf("loading rules: %w", loadErr)
	}
	ruleList, _ := engine.List()
	log.Info("rule engine initialised", "rules", len(ruleList))

	// Connect to InfluxDB and start state telemetry (optional)
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
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		recorder := telemetry.NewRecorder(reg, influxClient, log)
		recorder.Start(ctx)
		defer func() {
			log.Info("stopping telemetry recorder")
			recorder.Stop()
		}()
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start API server
	apiServer, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Logger:      log,
		Registry:    reg,
		Bridge:      bridge,
		Rules:       engine,
		ExternalHub: hub,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. Telemetry + InfluxDB (if enabled)
	// 3. Hub adapter
	// 4. MQTT
	// 5. Database

	log.Info("Hearth Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses HEARTH_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HEARTH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	// Check database
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	// Check MQTT
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	// Check InfluxDB (if enabled)
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
