// Package mqtt connects the Tilt bridge to the Brewblox event bus.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - JSON publishing with the configured QoS
//   - Subscriptions that survive reconnects
//   - Last Will and Testament on the service status topic
//
// # Topics
//
// All topics are built per service name by Topics:
//
//	brewcast/state/{service}                  retained presence
//	brewcast/state/{service}/{color}/{mac}    retained device state
//	brewcast/history/{service}                history
//	brewcast/tilt/{service}/names             inbound name overrides
//	brewcast/tilt/{service}/status            connection status (LWT)
//	brewcast/spark/blocks/patch               Spark block patches
//
// # Usage
//
//	topics := mqtt.NewTopics(cfg.Service.Name)
//	client, err := mqtt.Connect(cfg.MQTT, topics)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishJSON(topics.ServiceState(), state, true)
package mqtt
