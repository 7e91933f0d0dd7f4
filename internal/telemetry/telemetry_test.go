package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/emberhall/hearth-core/internal/registry"
)

type recordedPoint struct {
	measurement string
	tags        map[string]string
	fields      map[string]interface{}
}

type mockWriter struct {
	mu     sync.Mutex
	points []recordedPoint
}

func (w *mockWriter) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = append(w.points, recordedPoint{measurement: measurement, tags: tags, fields: fields})
}

func (w *mockWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.points)
}

func (w *mockWriter) point(i int) recordedPoint {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.points[i]
}

type stubSource struct {
	mu      sync.Mutex
	devices []registry.Device
	events  chan registry.Event
}

func newStubSource(devices ...registry.Device) *stubSource {
	return &stubSource{
		devices: devices,
		events:  make(chan registry.Event, 8),
	}
}

func (s *stubSource) Devices() []registry.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]registry.Device, len(s.devices))
	copy(out, s.devices)
	return out
}

func (s *stubSource) Subscribe() (<-chan registry.Event, func()) {
	return s.events, func() {}
}

func (s *stubSource) setDevices(devices []registry.Device) {
	s.mu.Lock()
	s.devices = devices
	s.mu.Unlock()
}

func waitForPoints(t *testing.T, w *mockWriter, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if w.count() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("recorded %d points, want at least %d", w.count(), want)
}

func TestRecorder_BaselineOnStart(t *testing.T) {
	bright := 70
	source := newStubSource(
		registry.Device{ID: "d1", Room: "Office", Type: "light", IsOn: true, Brightness: &bright},
		registry.Device{ID: "d2", Room: "Hall", Type: "switch"},
	)
	writer := &mockWriter{}

	rec := NewRecorder(source, writer, nil)
	rec.Start(context.Background())
	defer rec.Stop()

	waitForPoints(t, writer, 2)

	p := writer.point(0)
	if p.measurement != "device_state" {
		t.Errorf("measurement = %q, want device_state", p.measurement)
	}
	if p.tags["device_id"] != "d1" || p.tags["room"] != "Office" || p.tags["type"] != "light" {
		t.Errorf("tags = %v", p.tags)
	}
	if p.fields["on"] != 1 {
		t.Errorf("fields[on] = %v, want 1", p.fields["on"])
	}
	if p.fields["brightness"] != 70 {
		t.Errorf("fields[brightness] = %v, want 70", p.fields["brightness"])
	}

	// Devices without a brightness channel omit the field.
	p = writer.point(1)
	if p.fields["on"] != 0 {
		t.Errorf("fields[on] = %v, want 0", p.fields["on"])
	}
	if _, ok := p.fields["brightness"]; ok {
		t.Error("brightness recorded for device without channel")
	}
}

func TestRecorder_RecordsOnDeviceEvents(t *testing.T) {
	source := newStubSource(registry.Device{ID: "d1", Type: "light"})
	writer := &mockWriter{}

	rec := NewRecorder(source, writer, nil)
	rec.Start(context.Background())
	defer rec.Stop()

	waitForPoints(t, writer, 1)

	source.setDevices([]registry.Device{
		{ID: "d1", Type: "light", IsOn: true},
	})
	source.events <- registry.Event{Kind: registry.EventDevices}

	waitForPoints(t, writer, 2)

	p := writer.point(1)
	if p.fields["on"] != 1 {
		t.Errorf("fields[on] = %v, want 1 after update", p.fields["on"])
	}
}

func TestRecorder_IgnoresSceneEvents(t *testing.T) {
	source := newStubSource(registry.Device{ID: "d1"})
	writer := &mockWriter{}

	rec := NewRecorder(source, writer, nil)
	rec.Start(context.Background())
	defer rec.Stop()

	waitForPoints(t, writer, 1)

	source.events <- registry.Event{Kind: registry.EventScenes}
	time.Sleep(50 * time.Millisecond)

	if writer.count() != 1 {
		t.Errorf("points = %d after scene event, want 1", writer.count())
	}
}

func TestRecorder_StopHaltsRecording(t *testing.T) {
	source := newStubSource(registry.Device{ID: "d1"})
	writer := &mockWriter{}

	rec := NewRecorder(source, writer, nil)
	rec.Start(context.Background())
	waitForPoints(t, writer, 1)

	rec.Stop()

	source.events <- registry.Event{Kind: registry.EventDevices}
	time.Sleep(50 * time.Millisecond)

	if writer.count() != 1 {
		t.Errorf("points = %d after Stop(), want 1", writer.count())
	}
}

func TestRecorder_StopIdempotent(t *testing.T) {
	rec := NewRecorder(newStubSource(), &mockWriter{}, nil)
	rec.Start(context.Background())
	rec.Stop()
	rec.Stop()
}
