package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
service:
  name: "fermenter"
tilt:
  lower_bound: 0.8
  upper_bound: 1.5
  simulate: ["Red", "Black"]
  devices_file: "/tmp/devices.yml"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  port: 8090
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.Name != "fermenter" {
		t.Errorf("Service.Name = %q, want %q", cfg.Service.Name, "fermenter")
	}
	if cfg.Tilt.LowerBound != 0.8 || cfg.Tilt.UpperBound != 1.5 {
		t.Errorf("bounds = [%v, %v], want [0.8, 1.5]", cfg.Tilt.LowerBound, cfg.Tilt.UpperBound)
	}
	if len(cfg.Tilt.Simulate) != 2 || cfg.Tilt.Simulate[1] != "Black" {
		t.Errorf("Tilt.Simulate = %v, want [Red Black]", cfg.Tilt.Simulate)
	}
	if cfg.Tilt.DevicesFile != "/tmp/devices.yml" {
		t.Errorf("Tilt.DevicesFile = %q, want %q", cfg.Tilt.DevicesFile, "/tmp/devices.yml")
	}
	// Unset keys keep their defaults
	if cfg.Tilt.SGCalibrationFile != "/share/SGCal.csv" {
		t.Errorf("Tilt.SGCalibrationFile = %q, want default", cfg.Tilt.SGCalibrationFile)
	}
	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
tilt:
  lower_bound: 2.0
  upper_bound: 1.0
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for inverted bounds, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid config", func(*Config) {}, false},
		{"missing service name", func(c *Config) { c.Service.Name = "" }, true},
		{"zero lower bound", func(c *Config) { c.Tilt.LowerBound = 0 }, true},
		{"upper equals lower", func(c *Config) { c.Tilt.UpperBound = c.Tilt.LowerBound }, true},
		{"missing devices file", func(c *Config) { c.Tilt.DevicesFile = "" }, true},
		{"missing calibration file", func(c *Config) { c.Tilt.TempCalibrationFile = "" }, true},
		{"missing database path", func(c *Config) { c.Database.Path = "" }, true},
		{"invalid QoS", func(c *Config) { c.MQTT.QoS = 3 }, true},
		{"invalid port", func(c *Config) { c.API.Port = 70000 }, true},
		{"port ignored when API disabled", func(c *Config) { c.API.Enabled = false; c.API.Port = 0 }, false},
		{"influx without url", func(c *Config) { c.InfluxDB.Enabled = true }, true},
		{"zero websocket ping interval", func(c *Config) { c.WebSocket.PingInterval = 0 }, true},
		{"zero websocket message size", func(c *Config) { c.WebSocket.MaxMessageSize = 0 }, true},
		{"websocket ignored when API disabled", func(c *Config) { c.API.Enabled = false; c.WebSocket = WebSocketConfig{} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ScanTimings(t *testing.T) {
	cfg := defaultConfig()
	cfg.Tilt.ScanDuration = 0.2
	cfg.Tilt.InactiveScanInterval = -3
	cfg.Tilt.ActiveScanInterval = 2.5

	if got := cfg.GetScanDuration(); got != time.Second {
		t.Errorf("GetScanDuration() = %v, want 1s minimum", got)
	}
	if got := cfg.GetInactiveScanInterval(); got != 0 {
		t.Errorf("GetInactiveScanInterval() = %v, want 0", got)
	}
	if got := cfg.GetActiveScanInterval(); got != 2500*time.Millisecond {
		t.Errorf("GetActiveScanInterval() = %v, want 2.5s", got)
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.API.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}
	if got := cfg.API.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}
	if got := cfg.API.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("GRAYLOGIC_TILT_NAME", "cellar")
	t.Setenv("GRAYLOGIC_TILT_LOWER_BOUND", "0.9")
	t.Setenv("GRAYLOGIC_TILT_SIMULATE", "Red, ,Pink")
	t.Setenv("GRAYLOGIC_DATABASE_PATH", "/custom/path.db")
	t.Setenv("GRAYLOGIC_MQTT_HOST", "mqtt.example.com")
	t.Setenv("GRAYLOGIC_MQTT_PORT", "8883")
	t.Setenv("GRAYLOGIC_MQTT_USERNAME", "testuser")
	t.Setenv("GRAYLOGIC_MQTT_PASSWORD", "testpass")
	t.Setenv("GRAYLOGIC_INFLUXDB_TOKEN", "secret-token")

	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides() error = %v", err)
	}

	if cfg.Service.Name != "cellar" {
		t.Errorf("Service.Name = %q, want %q", cfg.Service.Name, "cellar")
	}
	if cfg.Tilt.LowerBound != 0.9 {
		t.Errorf("Tilt.LowerBound = %v, want 0.9", cfg.Tilt.LowerBound)
	}
	if len(cfg.Tilt.Simulate) != 2 || cfg.Tilt.Simulate[0] != "Red" || cfg.Tilt.Simulate[1] != "Pink" {
		t.Errorf("Tilt.Simulate = %v, want [Red Pink]", cfg.Tilt.Simulate)
	}
	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" || cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT broker = %s:%d, want mqtt.example.com:8883", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Auth.Username != "testuser" || cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth = %+v, want testuser/testpass", cfg.MQTT.Auth)
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
}

func TestApplyEnvOverrides_InvalidNumber(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("GRAYLOGIC_TILT_UPPER_BOUND", "high")

	if err := applyEnvOverrides(cfg); err == nil {
		t.Error("applyEnvOverrides() expected error for non-numeric bound")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Service.Name != "tilt" {
		t.Errorf("defaultConfig Service.Name = %q, want tilt", cfg.Service.Name)
	}
	if cfg.Tilt.LowerBound != 0.5 || cfg.Tilt.UpperBound != 2 {
		t.Errorf("defaultConfig bounds = [%v, %v], want [0.5, 2]", cfg.Tilt.LowerBound, cfg.Tilt.UpperBound)
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.WebSocket.MaxMessageSize != 8192 || cfg.WebSocket.PingInterval != 30 || cfg.WebSocket.PongTimeout != 10 {
		t.Errorf("defaultConfig WebSocket = %+v", cfg.WebSocket)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig should validate, got %v", err)
	}
}
