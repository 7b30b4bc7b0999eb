package influxdb_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-tilt/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-tilt/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-tilt/internal/pipeline"
)

// testConfig returns a configuration for a local dev InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "graylogic-dev-token",
		Org:           "graylogic",
		Bucket:        "tilt",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

// skipIfNoInfluxDB skips the test if InfluxDB is not running.
func skipIfNoInfluxDB(t *testing.T) {
	t.Helper()
	if os.Getenv("RUN_INTEGRATION") == "" {
		client, err := influxdb.Connect(testConfig())
		if err != nil {
			t.Skip("InfluxDB not available, skipping integration test")
		}
		client.Close() //nolint:errcheck // Reachability check only
	}
}

func testMessage() pipeline.Message {
	rawSG := 1.052
	return pipeline.Message{
		Name:  "Fermenter 1",
		MAC:   "AA7F97FC141E",
		Color: "Red",
		Data: pipeline.Data{
			TemperatureF:                68,
			TemperatureC:                20,
			SpecificGravity:             1.05,
			Plato:                       12.388,
			RSSI:                        -80,
			UncalibratedSpecificGravity: &rawSG,
		},
	}
}

func TestNewTiltPoint(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	p := influxdb.NewTiltPoint("tilt", testMessage(), at)

	if p.Name() != influxdb.MeasurementTilt {
		t.Errorf("Name() = %q, want %q", p.Name(), influxdb.MeasurementTilt)
	}
	if !p.Time().Equal(at) {
		t.Errorf("Time() = %v, want %v", p.Time(), at)
	}

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	want := map[string]string{"service": "tilt", "name": "Fermenter 1", "color": "Red", "mac": "AA7F97FC141E"}
	for k, v := range want {
		if tags[k] != v {
			t.Errorf("tag %s = %q, want %q", k, tags[k], v)
		}
	}

	fields := map[string]any{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	if fields["specificGravity"] != 1.05 {
		t.Errorf("specificGravity = %v, want 1.05", fields["specificGravity"])
	}
	if fields["uncalibratedSpecificGravity"] != 1.052 {
		t.Errorf("uncalibratedSpecificGravity = %v, want 1.052", fields["uncalibratedSpecificGravity"])
	}
	if fields["rssi[dBm]"] != int64(-80) {
		t.Errorf("rssi[dBm] = %v (%T), want int64 -80", fields["rssi[dBm]"], fields["rssi[dBm]"])
	}
	if _, ok := fields["uncalibratedTemperature[degF]"]; ok {
		t.Error("absent uncalibrated temperature should not be written")
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_InvalidURL(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping connection timeout test in short mode")
	}
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999"

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestNilClient(t *testing.T) {
	var client *influxdb.Client
	if client.IsConnected() {
		t.Error("nil client reports connected")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}

func TestWriteTilt(t *testing.T) {
	skipIfNoInfluxDB(t)

	client, err := influxdb.Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	var (
		mu       sync.Mutex
		writeErr error
	)
	client.SetOnError(func(err error) {
		mu.Lock()
		writeErr = err
		mu.Unlock()
	})

	client.WriteTilt("tilt-test", []pipeline.Message{testMessage()}, time.Now())
	client.Flush()
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if writeErr != nil {
		t.Errorf("write error = %v", writeErr)
	}
}

func TestHealthCheck(t *testing.T) {
	skipIfNoInfluxDB(t)

	client, err := influxdb.Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	client.Close() //nolint:errcheck // closed to test state
	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() after Close error = %v, want ErrNotConnected", err)
	}
	client.Flush()
}
