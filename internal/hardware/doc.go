// Package hardware defines the capability interface between the Hearth
// control core and the physical device layer.
//
// The core never talks to hardware directly. Everything it needs is expressed
// through the Adapter interface: synchronous inventory snapshots plus
// asynchronous, completion-channel based writes. Production deployments wire
// in the MQTT adapter from internal/bridges/mqtta; tests wire in fakes.
//
// # Completion channels
//
// Write operations model callback-driven hardware: the returned channel
// delivers at most one error (nil meaning success). A channel that never
// delivers represents a lost hardware signal; the Command Bridge bounds every
// wait with a deadline, so adapters are free to drop completions on the floor.
package hardware
