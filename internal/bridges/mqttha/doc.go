// Package mqttha adapts the MQTT hub protocol to the hardware layer.
//
// # Architecture
//
// The hub owns the physical devices and publishes two retained inventory
// messages, one for devices and one for scenes. Because the messages are
// retained, the adapter receives a full snapshot the moment it subscribes,
// with no request/response handshake and no startup ordering between core
// and hub.
//
// Writes are fire-and-correlate. Each command carries a freshly generated
// request ID and is published to the device or scene command topic. The hub
// answers on a per-request result topic; the adapter holds a single
// wildcard subscription over the result namespace and dispatches each
// result to the one-shot channel registered for its request ID. Requests
// the hub never answers expire silently, which matches the hardware
// contract: completion channels either deliver exactly once or not at all,
// and callers bound their own waits.
//
// The hub's retained status message doubles as its MQTT last will. When it
// flips to offline, the adapter fails writes immediately instead of letting
// them ride out the caller's timeout.
//
// # Usage
//
//	adapter := mqttha.NewAdapter(mqttClient, logger)
//	if err := adapter.Start(); err != nil {
//	    return err
//	}
//	defer adapter.Stop()
//
//	devices, err := adapter.Devices(ctx)
package mqttha
