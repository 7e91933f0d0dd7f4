package telemetry

import (
	"context"
	"sync"

	"github.com/emberhall/hearth-core/internal/registry"
)

// Logger defines the logging interface used by the Recorder.
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

// Writer is the subset of the InfluxDB client the recorder needs.
// Satisfied by *influxdb.Client; writes are fire-and-forget.
type Writer interface {
	WritePoint(measurement string, tags map[string]string, fields map[string]interface{})
}

// Source provides device snapshots and change notifications.
// Satisfied by *registry.Registry.
type Source interface {
	Devices() []registry.Device
	Subscribe() (<-chan registry.Event, func())
}

// Recorder mirrors registry device state into the time-series store. Every
// device reload produces one point per device, so the series records state
// as observed after each hardware round-trip rather than on a polling clock.
type Recorder struct {
	source Source
	writer Writer
	logger Logger

	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewRecorder creates a recorder. Call Start to begin mirroring.
func NewRecorder(source Source, writer Writer, logger Logger) *Recorder {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Recorder{
		source: source,
		writer: writer,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start subscribes to registry events and records snapshots until Stop or
// context cancellation. The current snapshot is recorded immediately so the
// series has a baseline before the first reload.
func (r *Recorder) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	events, unsubscribe := r.source.Subscribe()

	go func() {
		defer close(r.done)
		defer unsubscribe()

		r.record()

		for {
			select {
			case ev := <-events:
				if ev.Kind == registry.EventDevices {
					r.record()
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	r.logger.Info("telemetry recorder started")
}

// Stop halts recording and waits for the worker to exit.
func (r *Recorder) Stop() {
	r.stopOnce.Do(func() {
		if r.cancel == nil {
			return
		}
		r.cancel()
		<-r.done
		r.logger.Info("telemetry recorder stopped")
	})
}

// record writes one device_state point per device in the current snapshot.
func (r *Recorder) record() {
	devices := r.source.Devices()

	for _, dev := range devices {
		tags := map[string]string{
			"device_id": dev.ID,
			"room":      dev.Room,
			"type":      string(dev.Type),
		}
		fields := map[string]interface{}{
			"on": boolToInt(dev.IsOn),
		}
		if dev.Brightness != nil {
			fields["brightness"] = *dev.Brightness
		}
		r.writer.WritePoint("device_state", tags, fields)
	}

	r.logger.Debug("recorded device snapshot", "devices", len(devices))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
