package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/emberhall/hearth-core/internal/hardware"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// EventKind identifies what changed in the registry.
type EventKind string

// Event kinds published to subscribers.
const (
	EventDevices EventKind = "devices.updated"
	EventScenes  EventKind = "scenes.updated"
)

// Event is a change notification delivered to subscribers.
type Event struct {
	Kind EventKind
}

// subscriberBuffer is the per-subscriber event channel capacity. Events are
// dropped, not blocked on, when a subscriber falls behind: a reload
// notification only means "refetch", so losing one under a newer one is fine.
const subscriberBuffer = 8

// Registry owns the in-memory snapshot of all devices and scenes known to the
// hardware layer, and resolves user-supplied identifiers to entities.
//
// Snapshots are rebuilt wholesale on every reload and swapped under a write
// lock: readers observe either the prior complete snapshot or the new one,
// never a partially-updated mix. Concurrent reloads are expected (overlapping
// commands each trigger one) and resolve as last-writer-wins.
//
// All public methods are thread-safe.
type Registry struct {
	adapter hardware.Adapter
	logger  Logger

	mu          sync.RWMutex
	devices     []Device          // sorted by name ascending, case-sensitive
	scenes      []Scene           // sorted by name ascending
	sceneByID   map[string]Scene
	sceneByName map[string]string // lowercase name -> scene id (last write wins)

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// New creates a registry backed by the given hardware adapter.
// The registry is empty until the first reload.
func New(adapter hardware.Adapter) *Registry {
	return &Registry{
		adapter:     adapter,
		logger:      noopLogger{},
		sceneByID:   make(map[string]Scene),
		sceneByName: make(map[string]string),
		subs:        make(map[int]chan Event),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// ReloadDevices fetches the full device inventory from the hardware adapter
// and replaces the device snapshot atomically, sorted by name ascending.
// Subscribers are notified after the swap. Safe to call from any number of
// concurrent triggers; the last completed reload wins, there is no merge.
func (r *Registry) ReloadDevices(ctx context.Context) error {
	records, err := r.adapter.Devices(ctx)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	// Build the new snapshot fully off to the side, then publish.
	devices := make([]Device, 0, len(records))
	for _, rec := range records {
		devices = append(devices, deviceFromRecord(rec))
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].Name < devices[j].Name
	})

	r.mu.Lock()
	r.devices = devices
	r.mu.Unlock()

	r.logger.Info("device snapshot reloaded", "count", len(devices))
	r.notify(Event{Kind: EventDevices})
	return nil
}

// ReloadScenes fetches the full scene inventory and replaces the scene
// snapshot and both lookup indices atomically. Duplicate lowercase names
// overwrite the name index (last write wins); that ambiguity is inherent to
// scenes sharing a name across homes.
func (r *Registry) ReloadScenes(ctx context.Context) error {
	records, err := r.adapter.Scenes(ctx)
	if err != nil {
		return fmt.Errorf("loading scenes: %w", err)
	}

	scenes := make([]Scene, 0, len(records))
	byID := make(map[string]Scene, len(records))
	byName := make(map[string]string, len(records))
	for _, rec := range records {
		s := sceneFromRecord(rec)
		scenes = append(scenes, s)
		byID[s.ID] = s
		byName[strings.ToLower(s.Name)] = s.ID
	}
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].Name < scenes[j].Name
	})

	r.mu.Lock()
	r.scenes = scenes
	r.sceneByID = byID
	r.sceneByName = byName
	r.mu.Unlock()

	r.logger.Info("scene snapshot reloaded", "count", len(scenes))
	r.notify(Event{Kind: EventScenes})
	return nil
}

// Devices returns the current device snapshot in registry order.
// The returned slice and its elements are copies.
func (r *Registry) Devices() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Device, 0, len(r.devices))
	for i := range r.devices {
		out = append(out, *r.devices[i].Clone())
	}
	return out
}

// DeviceByID retrieves a device by its exact id.
// Returns ErrDeviceNotFound if the id is not in the current snapshot.
func (r *Registry) DeviceByID(id string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.devices {
		if r.devices[i].ID == id {
			return r.devices[i].Clone(), nil
		}
	}
	return nil, ErrDeviceNotFound
}

// Scenes returns the current scene snapshot sorted by name.
func (r *Registry) Scenes() []Scene {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Scene, len(r.scenes))
	copy(out, r.scenes)
	return out
}

// DeviceCount returns the number of devices in the current snapshot.
func (r *Registry) DeviceCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// SceneCount returns the number of scenes in the current snapshot.
func (r *Registry) SceneCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.scenes)
}

// Subscribe registers for change notifications. The returned cancel function
// must be called when the subscriber is done; it closes the channel.
// Delivery is best-effort: events are dropped when the subscriber's buffer is
// full, since any event only signals "snapshot changed, refetch".
func (r *Registry) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	r.subMu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	r.subMu.Unlock()

	cancel := func() {
		r.subMu.Lock()
		if _, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(ch)
		}
		r.subMu.Unlock()
	}
	return ch, cancel
}

// notify fans an event out to all subscribers without blocking.
func (r *Registry) notify(ev Event) {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	for _, ch := range r.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber is behind; it will catch up on its next refetch.
		}
	}
}
