// Package events fans core state-change notifications out to external
// observers.
//
// The Relay sits between the things that emit events (the registry, the rule
// engine) and the two delivery paths: the WebSocket hub for local UI clients
// and MQTT core event topics (hearth/core/event/{type}) for anything else on
// the broker. It implements the rule engine's hub contract, so rule
// activation events flow through it unchanged, and it subscribes to the
// registry so inventory updates reach MQTT without the registry knowing
// about transports.
package events
