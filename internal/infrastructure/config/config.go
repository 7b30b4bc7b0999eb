package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Tilt bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Tilt      TiltConfig      `yaml:"tilt"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServiceConfig identifies this bridge instance on the event bus.
type ServiceConfig struct {
	// Name is used as the message key and in every published topic.
	Name string `yaml:"name"`
}

// TiltConfig contains scanning, decoding and calibration settings.
type TiltConfig struct {
	// LowerBound and UpperBound limit acceptable specific gravity values.
	// Out-of-bounds readings are discarded.
	LowerBound float64 `yaml:"lower_bound"`
	UpperBound float64 `yaml:"upper_bound"`

	// ScanDuration is how long each scan collects beacons (seconds).
	ScanDuration float64 `yaml:"scan_duration"`

	// InactiveScanInterval is the pause between scans while no devices report (seconds).
	InactiveScanInterval float64 `yaml:"inactive_scan_interval"`

	// ActiveScanInterval is the pause between scans while devices report (seconds).
	ActiveScanInterval float64 `yaml:"active_scan_interval"`

	// Simulate lists colours to simulate instead of listening for real beacons.
	Simulate []string `yaml:"simulate"`

	// DevicesFile stores the MAC -> name table and sync rules.
	DevicesFile string `yaml:"devices_file"`

	// SGCalibrationFile and TempCalibrationFile hold calibration points.
	SGCalibrationFile   string `yaml:"sg_calibration_file"`
	TempCalibrationFile string `yaml:"temp_calibration_file"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains settings for the live reading stream served by the API.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYLOGIC_SECTION_KEY
// For example: GRAYLOGIC_TILT_LOWER_BOUND, GRAYLOGIC_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the default configuration with environment overrides applied.
// It is used when no configuration file exists.
func Default() (*Config, error) {
	cfg := defaultConfig()
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name: "tilt",
		},
		Tilt: TiltConfig{
			LowerBound:           0.5,
			UpperBound:           2,
			ScanDuration:         5,
			InactiveScanInterval: 5,
			ActiveScanInterval:   10,
			DevicesFile:          "/share/devices.yml",
			SGCalibrationFile:    "/share/SGCal.csv",
			TempCalibrationFile:  "/share/tempCal.csv",
		},
		Database: DatabaseConfig{
			Path:        "./data/tilt.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "eventbus",
				Port:     1883,
				ClientID: "graylogic-tilt",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYLOGIC_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("GRAYLOGIC_TILT_NAME"); v != "" {
		cfg.Service.Name = v
	}

	// Tilt
	floats := []struct {
		env    string
		target *float64
	}{
		{"GRAYLOGIC_TILT_LOWER_BOUND", &cfg.Tilt.LowerBound},
		{"GRAYLOGIC_TILT_UPPER_BOUND", &cfg.Tilt.UpperBound},
		{"GRAYLOGIC_TILT_SCAN_DURATION", &cfg.Tilt.ScanDuration},
		{"GRAYLOGIC_TILT_INACTIVE_SCAN_INTERVAL", &cfg.Tilt.InactiveScanInterval},
		{"GRAYLOGIC_TILT_ACTIVE_SCAN_INTERVAL", &cfg.Tilt.ActiveScanInterval},
	}
	for _, f := range floats {
		v := os.Getenv(f.env)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", f.env, err)
		}
		*f.target = parsed
	}
	if v := os.Getenv("GRAYLOGIC_TILT_SIMULATE"); v != "" {
		cfg.Tilt.Simulate = splitList(v)
	}
	if v := os.Getenv("GRAYLOGIC_TILT_DEVICES_FILE"); v != "" {
		cfg.Tilt.DevicesFile = v
	}

	// Database
	if v := os.Getenv("GRAYLOGIC_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("GRAYLOGIC_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GRAYLOGIC_MQTT_PORT: %w", err)
		}
		cfg.MQTT.Broker.Port = port
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("GRAYLOGIC_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("GRAYLOGIC_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	return nil
}

// splitList splits a comma separated environment value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Service.Name == "" {
		errs = append(errs, "service.name is required")
	}

	// Tilt validation
	if c.Tilt.LowerBound <= 0 {
		errs = append(errs, "tilt.lower_bound must be positive")
	}
	if c.Tilt.UpperBound <= c.Tilt.LowerBound {
		errs = append(errs, "tilt.upper_bound must be greater than tilt.lower_bound")
	}
	if c.Tilt.DevicesFile == "" {
		errs = append(errs, "tilt.devices_file is required")
	}
	if c.Tilt.SGCalibrationFile == "" || c.Tilt.TempCalibrationFile == "" {
		errs = append(errs, "tilt calibration files are required")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.API.Enabled && (c.WebSocket.PingInterval < 1 || c.WebSocket.PongTimeout < 1) {
		errs = append(errs, "websocket.ping_interval and websocket.pong_timeout must be positive")
	}
	if c.API.Enabled && c.WebSocket.MaxMessageSize < 1 {
		errs = append(errs, "websocket.max_message_size must be positive")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetScanDuration returns the scan duration, never shorter than one second.
func (c *Config) GetScanDuration() time.Duration {
	return secondsDuration(max(c.Tilt.ScanDuration, 1))
}

// GetInactiveScanInterval returns the pause between scans without devices.
func (c *Config) GetInactiveScanInterval() time.Duration {
	return secondsDuration(max(c.Tilt.InactiveScanInterval, 0))
}

// GetActiveScanInterval returns the pause between scans with active devices.
func (c *Config) GetActiveScanInterval() time.Duration {
	return secondsDuration(max(c.Tilt.ActiveScanInterval, 0))
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c APIConfig) GetReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c APIConfig) GetWriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c APIConfig) GetIdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}

func secondsDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
