// Gray Logic Tilt - Tilt hydrometer bridge
//
// graylogic-tilt listens for Tilt hydrometer beacons, calibrates and names
// each reading, and publishes the results to the MQTT event bus. Readings
// can also be kept in InfluxDB and summarised in SQLite.
//
// Usage:
//
//	graylogic-tilt [command] [flags]
//
// Running without a command starts the bridge.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-tilt/internal/api"
	"github.com/nerrad567/gray-logic-tilt/internal/beacon"
	"github.com/nerrad567/gray-logic-tilt/internal/broadcaster"
	"github.com/nerrad567/gray-logic-tilt/internal/calibration"
	"github.com/nerrad567/gray-logic-tilt/internal/devices"
	"github.com/nerrad567/gray-logic-tilt/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-tilt/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-tilt/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-tilt/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-tilt/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-tilt/internal/pipeline"
	"github.com/nerrad567/gray-logic-tilt/internal/scanner"
	"github.com/nerrad567/gray-logic-tilt/internal/sighting"
	"github.com/nerrad567/gray-logic-tilt/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

var configPath string

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "graylogic-tilt",
	Short: "Tilt hydrometer bridge for the Gray Logic event bus",
	Long: `Listens for Tilt hydrometer beacons and publishes calibrated readings
to the MQTT event bus.

If no command is specified, the bridge starts and runs until interrupted.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context(), configPath)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", getConfigPath(), "Path to the configuration file")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "graylogic-tilt %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

// run wires the bridge together and blocks until ctx is cancelled.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - path: Configuration file path
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, path string) error {
	log := logging.Default()
	log.Info("starting Gray Logic Tilt",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", path)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(database.FromConfig(cfg.Database))
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

	schema, err := migrations.Load()
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	if migrateErr := db.Migrate(ctx, schema); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")
	sightings := sighting.NewSQLiteRepository(db.DB)

	registry, err := devices.OpenFile(cfg.Tilt.DevicesFile, log.Component("devices"))
	if err != nil {
		return fmt.Errorf("opening device names: %w", err)
	}

	proc, err := newPipeline(cfg, registry, log)
	if err != nil {
		return err
	}

	topics := mqtt.NewTopics(cfg.Service.Name)
	mqttClient, err := mqtt.Connect(cfg.MQTT, topics)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.Component("mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	checks := map[string]api.HealthChecker{
		"database": db,
		"mqtt":     mqttClient,
	}

	opts := broadcaster.Options{
		Topics:           topics,
		Bus:              mqttClient,
		Processor:        proc,
		Sightings:        sightings,
		ScanDuration:     cfg.GetScanDuration(),
		ActiveInterval:   cfg.GetActiveScanInterval(),
		InactiveInterval: cfg.GetInactiveScanInterval(),
		QoS:              mqttClient.QoS(),
		Logger:           log.Component("broadcaster"),
	}

	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		opts.History = influxClient
		checks["influxdb"] = influxClient
	}

	var collector *scanner.Collector
	if len(cfg.Tilt.Simulate) > 0 {
		sim, simErr := scanner.NewSimulator(cfg.Tilt.Simulate, nil)
		if simErr != nil {
			return fmt.Errorf("starting simulator: %w", simErr)
		}
		opts.Scanner = sim
		log.Info("simulating Tilt devices", "colors", cfg.Tilt.Simulate)
	} else {
		collector = scanner.NewCollector(log.Component("scanner"))
		opts.Scanner = collector
		log.Info("collecting advertisements from the API")
	}

	var hub *api.Hub
	if cfg.API.Enabled {
		hub = api.NewHub(cfg.WebSocket, log.Component("websocket"))
		opts.Listener = hub
	}

	bc, err := broadcaster.New(opts)
	if err != nil {
		return fmt.Errorf("creating broadcaster: %w", err)
	}

	if err := healthCheck(ctx, checks); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	if err := bc.Start(ctx); err != nil {
		return fmt.Errorf("starting broadcaster: %w", err)
	}
	defer func() {
		log.Info("stopping broadcaster")
		bc.Stop()
	}()

	if cfg.API.Enabled {
		srv, apiErr := api.New(api.Deps{
			Config:    cfg.API,
			Logger:    log.Component("api"),
			Registry:  registry,
			Names:     proc,
			Sightings: sightings,
			Collector: collector,
			Status:    bc,
			Checks:    checks,
			Hub:       hub,
			Version:   version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API disabled")
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order: API, broadcaster, InfluxDB,
	// MQTT, database.
	log.Info("Gray Logic Tilt stopped")
	return nil
}

// newPipeline loads both calibration files and builds the message pipeline.
func newPipeline(cfg *config.Config, registry *devices.Registry, log *logging.Logger) (*pipeline.Pipeline, error) {
	calLog := log.Component("calibration")
	sgCal, err := calibration.Load(cfg.Tilt.SGCalibrationFile, calLog)
	if err != nil {
		return nil, fmt.Errorf("loading SG calibration: %w", err)
	}
	tempCal, err := calibration.Load(cfg.Tilt.TempCalibrationFile, calLog)
	if err != nil {
		return nil, fmt.Errorf("loading temperature calibration: %w", err)
	}

	decoder := beacon.NewDecoder(beacon.Bounds{
		Lower: cfg.Tilt.LowerBound,
		Upper: cfg.Tilt.UpperBound,
	})
	decoder.SetLogger(log.Component("decoder"))

	proc, err := pipeline.New(pipeline.Options{
		Decoder:        decoder,
		Registry:       registry,
		TempCalibrator: tempCal,
		SGCalibrator:   sgCal,
		Logger:         log.Component("pipeline"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating pipeline: %w", err)
	}
	return proc, nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies every infrastructure connection, returning the first failure.
func healthCheck(ctx context.Context, checks map[string]api.HealthChecker) error {
	for _, name := range []string{"database", "mqtt", "influxdb"} {
		check, ok := checks[name]
		if !ok {
			continue
		}
		if err := check.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
