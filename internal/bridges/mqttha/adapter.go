package mqttha

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emberhall/hearth-core/internal/hardware"
	"github.com/emberhall/hearth-core/internal/infrastructure/mqtt"
)

// Logger defines the logging interface used by the Adapter.
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

// MQTTClient is the subset of the MQTT client the adapter needs.
// Satisfied by *mqtt.Client; narrowed for mocking in tests.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	IsConnected() bool
}

const (
	commandQoS = 1

	// pendingTTL bounds how long an unanswered request stays registered.
	// Expiry removes the bookkeeping entry without touching the channel,
	// so a caller that already gave up sees nothing and a late result is
	// dropped as stale.
	pendingTTL = 30 * time.Second
)

// Adapter implements hardware.Adapter over the MQTT hub protocol.
//
// The hub publishes retained device and scene inventories; the adapter
// caches the latest snapshot and serves inventory reads from it. Writes
// publish a command carrying a fresh request ID and complete when the hub
// publishes the matching result. A single wildcard subscription on the
// result namespace dispatches results to per-request one-shot channels.
type Adapter struct {
	mqtt   MQTTClient
	topics mqtt.Topics
	logger Logger

	pendingMu sync.Mutex
	pending   map[string]chan error

	invMu        sync.RWMutex
	devices      []hardware.DeviceRecord
	scenes       []hardware.SceneRecord
	hubOnline    bool
	devicesReady chan struct{}
	devicesOnce  sync.Once
	scenesReady  chan struct{}
	scenesOnce   sync.Once

	callbackMu sync.Mutex
	onDevices  func()
	onScenes   func()

	stopOnce sync.Once
}

// NewAdapter creates an adapter bound to the given MQTT client.
// Call Start to subscribe to the hub topics before use.
//
// Parameters:
//   - client: Connected MQTT client
//   - logger: Optional structured logger (nil disables logging)
//
// Returns:
//   - *Adapter: Ready to Start
func NewAdapter(client MQTTClient, logger Logger) *Adapter {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Adapter{
		mqtt:         client,
		logger:       logger,
		pending:      make(map[string]chan error),
		hubOnline:    true,
		devicesReady: make(chan struct{}),
		scenesReady:  make(chan struct{}),
	}
}

// SetOnDevicesChanged registers a callback invoked after each device
// inventory update. The callback runs on the MQTT handler goroutine and
// must not block.
func (a *Adapter) SetOnDevicesChanged(callback func()) {
	a.callbackMu.Lock()
	defer a.callbackMu.Unlock()
	a.onDevices = callback
}

// SetOnScenesChanged registers a callback invoked after each scene
// inventory update.
func (a *Adapter) SetOnScenesChanged(callback func()) {
	a.callbackMu.Lock()
	defer a.callbackMu.Unlock()
	a.onScenes = callback
}

// Start subscribes to the hub's inventory, status, and result topics.
// Retained inventory messages arrive immediately after subscribing, so the
// first Devices or Scenes call normally returns without waiting.
func (a *Adapter) Start() error {
	subs := []struct {
		topic   string
		handler mqtt.MessageHandler
	}{
		{a.topics.HubDevices(), a.handleDevices},
		{a.topics.HubScenes(), a.handleScenes},
		{a.topics.HubStatus(), a.handleStatus},
		{a.topics.AllCommandResults(), a.handleResult},
	}

	for _, s := range subs {
		if err := a.mqtt.Subscribe(s.topic, commandQoS, s.handler); err != nil {
			return fmt.Errorf("subscribe %s: %w", s.topic, err)
		}
	}

	a.logger.Info("hub adapter started")
	return nil
}

// Stop unsubscribes from the hub topics. Pending requests are left to
// expire; their channels never deliver, which callers already bound for.
func (a *Adapter) Stop() {
	a.stopOnce.Do(func() {
		topics := []string{
			a.topics.HubDevices(),
			a.topics.HubScenes(),
			a.topics.HubStatus(),
			a.topics.AllCommandResults(),
		}
		for _, topic := range topics {
			if err := a.mqtt.Unsubscribe(topic); err != nil {
				a.logger.Debug("unsubscribe failed", "topic", topic, "error", err)
			}
		}
		a.logger.Info("hub adapter stopped")
	})
}

// Devices returns the latest device inventory snapshot, waiting for the
// first retained inventory message if none has arrived yet.
func (a *Adapter) Devices(ctx context.Context) ([]hardware.DeviceRecord, error) {
	select {
	case <-a.devicesReady:
	case <-ctx.Done():
		return nil, fmt.Errorf("mqttha: waiting for device inventory: %w", ctx.Err())
	}

	a.invMu.RLock()
	defer a.invMu.RUnlock()

	out := make([]hardware.DeviceRecord, len(a.devices))
	copy(out, a.devices)
	return out, nil
}

// Scenes returns the latest scene inventory snapshot, waiting for the first
// retained inventory message if none has arrived yet.
func (a *Adapter) Scenes(ctx context.Context) ([]hardware.SceneRecord, error) {
	select {
	case <-a.scenesReady:
	case <-ctx.Done():
		return nil, fmt.Errorf("mqttha: waiting for scene inventory: %w", ctx.Err())
	}

	a.invMu.RLock()
	defer a.invMu.RUnlock()

	out := make([]hardware.SceneRecord, len(a.scenes))
	copy(out, a.scenes)
	return out, nil
}

// WritePower requests an on/off write for the device.
func (a *Adapter) WritePower(id string, on bool) <-chan error {
	v := on
	return a.send(a.topics.DeviceCommand(id), commandMessage{On: &v})
}

// WriteBrightness requests a brightness write for the device.
func (a *Adapter) WriteBrightness(id string, level int) <-chan error {
	if level < 0 || level > 100 {
		return hardware.Completed(fmt.Errorf("%w: %d", ErrInvalidLevel, level))
	}
	return a.send(a.topics.DeviceCommand(id), commandMessage{Brightness: &level})
}

// ExecuteScene requests execution of a scene.
func (a *Adapter) ExecuteScene(id string) <-chan error {
	return a.send(a.topics.SceneExecute(id), commandMessage{})
}

// send publishes a command with a fresh request ID and returns its one-shot
// completion channel. Failures before the command reaches the broker
// complete immediately.
func (a *Adapter) send(topic string, msg commandMessage) <-chan error {
	if !a.mqtt.IsConnected() {
		return hardware.Completed(ErrHubOffline)
	}
	if !a.isHubOnline() {
		return hardware.Completed(ErrHubOffline)
	}

	requestID := uuid.New().String()
	msg.RequestID = requestID

	payload, err := json.Marshal(msg)
	if err != nil {
		return hardware.Completed(fmt.Errorf("mqttha: encode command: %w", err))
	}

	done := make(chan error, 1)
	a.pendingMu.Lock()
	a.pending[requestID] = done
	a.pendingMu.Unlock()

	if err := a.mqtt.Publish(topic, payload, commandQoS, false); err != nil {
		a.forget(requestID)
		return hardware.Completed(fmt.Errorf("mqttha: publish command: %w", err))
	}

	time.AfterFunc(pendingTTL, func() { a.forget(requestID) })

	a.logger.Debug("command sent", "topic", topic, "request_id", requestID)
	return done
}

// forget drops a pending request without delivering on its channel.
func (a *Adapter) forget(requestID string) {
	a.pendingMu.Lock()
	delete(a.pending, requestID)
	a.pendingMu.Unlock()
}

// handleDevices replaces the cached device snapshot.
func (a *Adapter) handleDevices(topic string, payload []byte) error {
	records, err := parseDeviceInventory(payload)
	if err != nil {
		a.logger.Warn("dropping device inventory", "error", err)
		return err
	}

	a.invMu.Lock()
	a.devices = records
	a.invMu.Unlock()
	a.devicesOnce.Do(func() { close(a.devicesReady) })

	a.callbackMu.Lock()
	callback := a.onDevices
	a.callbackMu.Unlock()
	if callback != nil {
		callback()
	}

	a.logger.Debug("device inventory updated", "count", len(records))
	return nil
}

// handleScenes replaces the cached scene snapshot.
func (a *Adapter) handleScenes(topic string, payload []byte) error {
	records, err := parseSceneInventory(payload)
	if err != nil {
		a.logger.Warn("dropping scene inventory", "error", err)
		return err
	}

	a.invMu.Lock()
	a.scenes = records
	a.invMu.Unlock()
	a.scenesOnce.Do(func() { close(a.scenesReady) })

	a.callbackMu.Lock()
	callback := a.onScenes
	a.callbackMu.Unlock()
	if callback != nil {
		callback()
	}

	a.logger.Debug("scene inventory updated", "count", len(records))
	return nil
}

// handleStatus tracks the hub's retained presence message.
func (a *Adapter) handleStatus(topic string, payload []byte) error {
	var status statusMessage
	if err := json.Unmarshal(payload, &status); err != nil {
		return fmt.Errorf("%w: status: %v", ErrInvalidPayload, err)
	}

	a.invMu.Lock()
	changed := a.hubOnline != status.Online
	a.hubOnline = status.Online
	a.invMu.Unlock()

	if changed {
		if status.Online {
			a.logger.Info("hub online")
		} else {
			a.logger.Warn("hub offline")
		}
	}
	return nil
}

// handleResult completes the pending request named by the topic's last
// segment. Results for unknown request IDs are stale and dropped.
func (a *Adapter) handleResult(topic string, payload []byte) error {
	requestID := topic[strings.LastIndex(topic, "/")+1:]
	if requestID == "" {
		return fmt.Errorf("%w: result topic %q", ErrInvalidPayload, topic)
	}

	var result resultMessage
	if err := json.Unmarshal(payload, &result); err != nil {
		return fmt.Errorf("%w: result: %v", ErrInvalidPayload, err)
	}

	a.pendingMu.Lock()
	done, ok := a.pending[requestID]
	delete(a.pending, requestID)
	a.pendingMu.Unlock()

	if !ok {
		a.logger.Debug("stale command result", "request_id", requestID)
		return nil
	}

	if !result.Success {
		done <- fmt.Errorf("%w: %s", ErrCommandRejected, result.Error)
	}
	close(done)
	return nil
}

func (a *Adapter) isHubOnline() bool {
	a.invMu.RLock()
	defer a.invMu.RUnlock()
	return a.hubOnline
}
