// Package influxdb writes Tilt readings to InfluxDB v2.
//
// It wraps the official influxdb-client-go v2 library. Every published
// message becomes one point in the "tilt" measurement, tagged with the
// service, device name, color and MAC.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // history stays on MQTT only
//	}
//	defer client.Close()
//
//	client.WriteTilt(cfg.Service.Name, messages, time.Now())
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are batched according
// to batch_size and flush_interval; asynchronous write errors go to the
// SetOnError callback.
package influxdb
