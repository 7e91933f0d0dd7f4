package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/emberhall/hearth-core/internal/registry"
)

// =============================================================================
// Test Doubles
// =============================================================================

type publishRecord struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// capturePublisher records every publish on a channel so tests can wait for
// deliveries made from the relay goroutine.
type capturePublisher struct {
	published chan publishRecord
	err       error
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{published: make(chan publishRecord, 8)}
}

func (p *capturePublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	p.published <- publishRecord{topic: topic, payload: payload, qos: qos, retained: retained}
	return p.err
}

func (p *capturePublisher) waitForPublish(t *testing.T) publishRecord {
	t.Helper()
	select {
	case rec := <-p.published:
		return rec
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for publish")
		return publishRecord{}
	}
}

type captureBroadcaster struct {
	channel string
	payload any
}

func (b *captureBroadcaster) Broadcast(channel string, payload any) {
	b.channel = channel
	b.payload = payload
}

// fakeSource hands out a fixed event channel and records unsubscribes.
type fakeSource struct {
	events       chan registry.Event
	unsubscribed chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		events:       make(chan registry.Event, 4),
		unsubscribed: make(chan struct{}, 1),
	}
}

func (s *fakeSource) Subscribe() (<-chan registry.Event, func()) {
	return s.events, func() { s.unsubscribed <- struct{}{} }
}

// =============================================================================
// Broadcast Tests
// =============================================================================

func TestBroadcast_ForwardsAndPublishes(t *testing.T) {
	pub := newCapturePublisher()
	inner := &captureBroadcaster{}
	relay := NewRelay(pub, inner, nil, nil)

	relay.Broadcast("rule.activated", map[string]string{"id": "r1", "name": "Focus"})

	if inner.channel != "rule.activated" {
		t.Errorf("inner channel = %q, want %q", inner.channel, "rule.activated")
	}

	rec := pub.waitForPublish(t)
	if rec.topic != "hearth/core/event/rule.activated" {
		t.Errorf("topic = %q, want %q", rec.topic, "hearth/core/event/rule.activated")
	}
	if rec.retained {
		t.Error("event should not be retained")
	}

	var body map[string]any
	if err := json.Unmarshal(rec.payload, &body); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if body["type"] != "rule.activated" {
		t.Errorf("payload type = %v, want %q", body["type"], "rule.activated")
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("payload data missing: %v", body)
	}
	if data["id"] != "r1" {
		t.Errorf("payload data id = %v, want %q", data["id"], "r1")
	}
}

func TestBroadcast_NilInner(t *testing.T) {
	pub := newCapturePublisher()
	relay := NewRelay(pub, nil, nil, nil)

	// Must not panic without a local broadcaster.
	relay.Broadcast("rule.deactivated", map[string]string{"id": "r1"})

	rec := pub.waitForPublish(t)
	if rec.topic != "hearth/core/event/rule.deactivated" {
		t.Errorf("topic = %q, want %q", rec.topic, "hearth/core/event/rule.deactivated")
	}
}

func TestBroadcast_PublishErrorDoesNotPanic(t *testing.T) {
	pub := newCapturePublisher()
	pub.err = errors.New("not connected")
	relay := NewRelay(pub, nil, nil, nil)

	relay.Broadcast("rule.activated", nil)
	pub.waitForPublish(t)
}

// =============================================================================
// Registry Relay Tests
// =============================================================================

func TestStart_RelaysRegistryEvents(t *testing.T) {
	pub := newCapturePublisher()
	source := newFakeSource()
	relay := NewRelay(pub, nil, source, nil)

	relay.Start(context.Background())
	defer relay.Stop()

	source.events <- registry.Event{Kind: registry.EventDevices}

	rec := pub.waitForPublish(t)
	if rec.topic != "hearth/core/event/devices.updated" {
		t.Errorf("topic = %q, want %q", rec.topic, "hearth/core/event/devices.updated")
	}

	var body map[string]any
	if err := json.Unmarshal(rec.payload, &body); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if body["type"] != "devices.updated" {
		t.Errorf("payload type = %v, want %q", body["type"], "devices.updated")
	}
	if _, present := body["data"]; present {
		t.Error("registry events should not carry a data field")
	}
}

func TestStop_Unsubscribes(t *testing.T) {
	pub := newCapturePublisher()
	source := newFakeSource()
	relay := NewRelay(pub, nil, source, nil)

	relay.Start(context.Background())
	relay.Stop()

	select {
	case <-source.unsubscribed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for unsubscribe")
	}

	// A second Stop must be a no-op.
	relay.Stop()
}

func TestStart_NoSource(t *testing.T) {
	pub := newCapturePublisher()
	relay := NewRelay(pub, nil, nil, nil)

	relay.Start(context.Background())
	relay.Stop()
}
