// Package telemetry mirrors registry device state into InfluxDB.
//
// The recorder is event-driven: it subscribes to registry change
// notifications and writes one device_state point per device after each
// reload. Since the command layer reloads the registry after every
// operation, the series naturally captures state transitions without a
// polling loop.
//
// Recording is optional. When InfluxDB is disabled in configuration the
// recorder is simply never constructed; nothing else in the system depends
// on it.
package telemetry
