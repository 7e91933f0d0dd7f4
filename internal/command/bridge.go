package command

import (
	"context"
	"fmt"
	"time"

	"github.com/emberhall/hearth-core/internal/hardware"
	"github.com/emberhall/hearth-core/internal/registry"
)

// Logger defines the logging interface used by the Bridge.
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

// Defaults applied when Config fields are zero.
const (
	// DefaultTimeout bounds how long any single operation waits for the
	// hardware to report completion, shared across all writes the operation
	// issues.
	DefaultTimeout = 10 * time.Second

	// DefaultSettleDelay is how long the bridge waits after a scene reports
	// completion before refreshing the registry. Scene execution fans out to
	// many devices and individual state reads lag the completion signal.
	DefaultSettleDelay = 500 * time.Millisecond
)

// Config tunes bridge wait behaviour. Zero values take the defaults above.
type Config struct {
	Timeout     time.Duration
	SettleDelay time.Duration
}

// StateRequest describes a desired device state.
type StateRequest struct {
	On bool

	// Brightness, when set, is applied after a successful power write and
	// only to devices that report a brightness channel. Clamped to 0-100.
	Brightness *int
}

// Bridge converts the adapter's asynchronous writes into bounded synchronous
// operations and keeps the registry snapshot converging on hardware reality
// by reloading after every completed operation.
//
// All methods are safe for concurrent use.
type Bridge struct {
	registry *registry.Registry
	adapter  hardware.Adapter
	logger   Logger
	timeout  time.Duration
	settle   time.Duration
}

// NewBridge creates a command bridge over the given registry and adapter.
func NewBridge(reg *registry.Registry, adapter hardware.Adapter, cfg Config, logger Logger) *Bridge {
	if logger == nil {
		logger = noopLogger{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	return &Bridge{
		registry: reg,
		adapter:  adapter,
		logger:   logger,
		timeout:  cfg.Timeout,
		settle:   cfg.SettleDelay,
	}
}

// SetState resolves a device by query and drives it to the requested state.
//
// The power write goes first; a brightness write follows only after the power
// write succeeds, and only when the device reports a brightness channel. Both
// writes share one deadline. The registry is reloaded after the operation
// regardless of outcome, and the returned device is re-read from the fresh
// snapshot.
//
// Returns registry.ErrDeviceNotFound, hardware.ErrNotWritable, ErrTimeout or
// ErrFailed.
func (b *Bridge) SetState(ctx context.Context, query string, req StateRequest) (*registry.Device, error) {
	dev, err := b.registry.ResolveDevice(query)
	if err != nil {
		return nil, err
	}
	return b.setDeviceState(ctx, dev, req)
}

// Toggle resolves a device by query and flips its power state.
// The target state is read from the current snapshot at call time; two
// concurrent toggles may therefore settle on the same state, which the
// post-write reload makes visible.
func (b *Bridge) Toggle(ctx context.Context, query string) (*registry.Device, error) {
	dev, err := b.registry.ResolveDevice(query)
	if err != nil {
		return nil, err
	}
	return b.setDeviceState(ctx, dev, StateRequest{On: !dev.IsOn})
}

func (b *Bridge) setDeviceState(ctx context.Context, dev *registry.Device, req StateRequest) (*registry.Device, error) {
	if !dev.Writable {
		return nil, fmt.Errorf("%w: %s", hardware.ErrNotWritable, dev.ID)
	}

	deadline := time.Now().Add(b.timeout)

	err := b.await(ctx, b.adapter.WritePower(dev.ID, req.On), deadline)
	if err == nil && req.Brightness != nil && dev.Brightness != nil {
		level := clampBrightness(*req.Brightness)
		err = b.await(ctx, b.adapter.WriteBrightness(dev.ID, level), deadline)
	}

	// Reload even after a failed or timed-out write: the hardware may have
	// applied it anyway, and the snapshot must reflect whatever happened.
	b.reloadDevices(ctx)

	if err != nil {
		b.logger.Warn("device write failed", "device_id", dev.ID, "on", req.On, "error", err)
		return nil, err
	}

	b.logger.Info("device state set", "device_id", dev.ID, "on", req.On)

	if fresh, lookupErr := b.registry.DeviceByID(dev.ID); lookupErr == nil {
		return fresh, nil
	}
	// Device vanished from the reload; report the state we drove it to.
	dev.IsOn = req.On
	if req.Brightness != nil && dev.Brightness != nil {
		v := clampBrightness(*req.Brightness)
		dev.Brightness = &v
	}
	return dev, nil
}

// SetRoom drives every writable device in the room to the given power state,
// skipping devices already there. Writes are issued concurrently and joined
// on one batch deadline; there is no rollback, individual failures are logged
// and the rest of the batch proceeds.
//
// Returns the number of devices confirmed changed, or
// registry.ErrDeviceNotFound when the room matches no devices.
func (b *Bridge) SetRoom(ctx context.Context, room string, on bool) (int, error) {
	devices := b.registry.DevicesInRoom(room)
	if len(devices) == 0 {
		return 0, registry.ErrDeviceNotFound
	}

	deadline := time.Now().Add(b.timeout)

	type pendingWrite struct {
		id   string
		done <-chan error
	}
	var pending []pendingWrite
	for i := range devices {
		d := &devices[i]
		if !d.Writable || d.IsOn == on {
			continue
		}
		pending = append(pending, pendingWrite{id: d.ID, done: b.adapter.WritePower(d.ID, on)})
	}

	changed := 0
	for _, p := range pending {
		if err := b.await(ctx, p.done, deadline); err != nil {
			b.logger.Warn("room write failed", "device_id", p.id, "on", on, "error", err)
			continue
		}
		changed++
	}

	b.reloadDevices(ctx)
	b.logger.Info("room state set", "room", room, "on", on, "changed", changed, "attempted", len(pending))
	return changed, nil
}

// TriggerScene resolves a scene by query and executes it, waiting for the
// hardware's completion signal under the operation deadline. The registry
// refresh is scheduled after a settle delay and the call returns without
// waiting for it.
//
// Returns registry.ErrSceneNotFound, ErrTimeout or ErrFailed.
func (b *Bridge) TriggerScene(ctx context.Context, query string) (*registry.Scene, error) {
	scene, err := b.registry.ResolveScene(query)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(b.timeout)
	if err := b.await(ctx, b.adapter.ExecuteScene(scene.ID), deadline); err != nil {
		b.logger.Warn("scene execution failed", "scene_id", scene.ID, "error", err)
		return nil, err
	}

	b.logger.Info("scene triggered", "scene_id", scene.ID, "name", scene.Name)

	time.AfterFunc(b.settle, func() {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		if err := b.registry.ReloadDevices(ctx); err != nil {
			b.logger.Warn("post-scene device reload failed", "error", err)
		}
		if err := b.registry.ReloadScenes(ctx); err != nil {
			b.logger.Warn("post-scene scene reload failed", "error", err)
		}
	})

	return scene, nil
}

// await blocks until the completion channel delivers, the deadline passes,
// or the context is cancelled. A channel closed without a value counts as
// success: the adapter signalled completion and had nothing to report.
func (b *Bridge) await(ctx context.Context, done <-chan error, deadline time.Time) error {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case err, ok := <-done:
		if !ok || err == nil {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrFailed, err)
	case <-timer.C:
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reloadDevices refreshes the registry snapshot, logging instead of failing:
// a reload error never masks the outcome of the write that triggered it.
func (b *Bridge) reloadDevices(ctx context.Context) {
	if err := b.registry.ReloadDevices(ctx); err != nil {
		b.logger.Warn("post-write device reload failed", "error", err)
	}
}

func clampBrightness(level int) int {
	if level < 0 {
		return 0
	}
	if level > 100 {
		return 100
	}
	return level
}
