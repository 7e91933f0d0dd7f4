package events

import (
	"context"
	"encoding/json"

	"github.com/emberhall/hearth-core/internal/infrastructure/mqtt"
	"github.com/emberhall/hearth-core/internal/registry"
)

// Logger is the minimal logging interface this package needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Publisher is the outbound MQTT surface the relay needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Broadcaster receives the same events for local delivery, typically the
// WebSocket hub.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// Source supplies registry change notifications.
type Source interface {
	Subscribe() (<-chan registry.Event, func())
}

// eventQoS is fire-and-forget; consumers that miss an event refetch on the
// next one.
const eventQoS = 0

// Relay fans core events out to MQTT and to a local broadcaster.
//
// Registry changes (devices.updated, scenes.updated) are picked up from a
// subscription by the Start goroutine. Rule lifecycle events arrive through
// Broadcast, which makes the relay a drop-in hub for the rule engine: the
// inner broadcaster still serves WebSocket clients while every event also
// lands on hearth/core/event/{type} for external observers.
type Relay struct {
	publisher Publisher
	inner     Broadcaster
	source    Source
	topics    mqtt.Topics
	logger    Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRelay creates a relay over the given publisher.
//
// Parameters:
//   - publisher: Connected MQTT client
//   - inner: Local broadcaster to forward Broadcast calls to (may be nil)
//   - source: Registry to watch for snapshot changes (may be nil)
//   - logger: Optional structured logger (nil disables logging)
//
// Returns:
//   - *Relay: Ready to Start
func NewRelay(publisher Publisher, inner Broadcaster, source Source, logger Logger) *Relay {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Relay{
		publisher: publisher,
		inner:     inner,
		source:    source,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Broadcast forwards an event to the inner broadcaster and publishes it on
// the core event topic. Implements the rule engine's hub contract.
func (r *Relay) Broadcast(channel string, payload any) {
	if r.inner != nil {
		r.inner.Broadcast(channel, payload)
	}
	r.publish(channel, payload)
}

// Start launches the goroutine relaying registry events. No-op when the
// relay has no source.
func (r *Relay) Start(ctx context.Context) {
	if r.source == nil {
		close(r.done)
		return
	}

	ctx, r.cancel = context.WithCancel(ctx)
	events, unsubscribe := r.source.Subscribe()

	go func() {
		defer close(r.done)
		defer unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				r.publish(string(ev.Kind), nil)
			}
		}
	}()
}

// Stop halts the registry relay goroutine. Safe to call more than once.
func (r *Relay) Stop() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
		<-r.done
	}
}

// publish writes one event to hearth/core/event/{type}. Events are
// notifications, not state, so they are never retained.
func (r *Relay) publish(eventType string, payload any) {
	body := map[string]any{"type": eventType}
	if payload != nil {
		body["data"] = payload
	}

	data, err := json.Marshal(body)
	if err != nil {
		r.logger.Warn("dropping event", "type", eventType, "error", err)
		return
	}

	topic := r.topics.CoreEvent(eventType)
	if err := r.publisher.Publish(topic, data, eventQoS, false); err != nil {
		r.logger.Warn("event publish failed", "topic", topic, "error", err)
		return
	}
	r.logger.Debug("event published", "topic", topic)
}
