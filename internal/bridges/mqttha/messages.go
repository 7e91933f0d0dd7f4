package mqttha

import (
	"encoding/json"
	"fmt"

	"github.com/emberhall/hearth-core/internal/hardware"
)

// MQTT message types exchanged between Hearth Core and the hub.
//
// The hub publishes its full device and scene inventories as retained
// messages so the core always receives a snapshot on subscribe, even after
// broker or core restarts. Command results are correlated by request ID.

// deviceMessage is one entry in the hub's device inventory.
// Topic: hearth/hub/devices (retained, inside a deviceInventory)
type deviceMessage struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Room       string `json:"room"`
	Kind       string `json:"kind"`
	On         bool   `json:"on"`
	Brightness *int   `json:"brightness,omitempty"`
	Writable   bool   `json:"writable"`
}

// deviceInventory is the full device snapshot published by the hub.
type deviceInventory struct {
	Devices   []deviceMessage `json:"devices"`
	UpdatedAt string          `json:"updated_at,omitempty"`
}

// sceneMessage is one entry in the hub's scene inventory.
// Topic: hearth/hub/scenes (retained, inside a sceneInventory)
type sceneMessage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Home        string `json:"home,omitempty"`
	ActionCount int    `json:"action_count"`
}

// sceneInventory is the full scene snapshot published by the hub.
type sceneInventory struct {
	Scenes    []sceneMessage `json:"scenes"`
	UpdatedAt string         `json:"updated_at,omitempty"`
}

// commandMessage is sent from Core to the hub to change a device or run a
// scene. Exactly one of On or Brightness is set for device commands; scene
// execution carries only the request ID.
// Topics: hearth/hub/device/{id}/set, hearth/hub/scene/{id}/execute
type commandMessage struct {
	RequestID  string `json:"request_id"`
	On         *bool  `json:"on,omitempty"`
	Brightness *int   `json:"brightness,omitempty"`
}

// resultMessage is published by the hub once a command completes.
// Topic: hearth/hub/result/{request_id}
type resultMessage struct {
	RequestID string `json:"request_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// statusMessage is the hub's retained presence message, set as the hub's
// MQTT last will so an unclean disconnect flips it to offline.
// Topic: hearth/hub/status
type statusMessage struct {
	Online bool `json:"online"`
}

// parseDeviceInventory decodes a device inventory payload into records.
func parseDeviceInventory(payload []byte) ([]hardware.DeviceRecord, error) {
	var inv deviceInventory
	if err := json.Unmarshal(payload, &inv); err != nil {
		return nil, fmt.Errorf("%w: devices: %v", ErrInvalidPayload, err)
	}

	records := make([]hardware.DeviceRecord, 0, len(inv.Devices))
	for _, d := range inv.Devices {
		if d.ID == "" {
			continue
		}
		records = append(records, hardware.DeviceRecord{
			ID:         d.ID,
			Name:       d.Name,
			Room:       d.Room,
			Kind:       deviceKind(d.Kind),
			On:         d.On,
			Brightness: d.Brightness,
			Writable:   d.Writable,
		})
	}
	return records, nil
}

// parseSceneInventory decodes a scene inventory payload into records.
func parseSceneInventory(payload []byte) ([]hardware.SceneRecord, error) {
	var inv sceneInventory
	if err := json.Unmarshal(payload, &inv); err != nil {
		return nil, fmt.Errorf("%w: scenes: %v", ErrInvalidPayload, err)
	}

	records := make([]hardware.SceneRecord, 0, len(inv.Scenes))
	for _, s := range inv.Scenes {
		if s.ID == "" {
			continue
		}
		records = append(records, hardware.SceneRecord{
			ID:          s.ID,
			Name:        s.Name,
			Home:        s.Home,
			ActionCount: s.ActionCount,
		})
	}
	return records, nil
}

// deviceKind maps a hub kind string onto a known DeviceKind.
func deviceKind(kind string) hardware.DeviceKind {
	switch hardware.DeviceKind(kind) {
	case hardware.KindLight, hardware.KindOutlet, hardware.KindSwitch,
		hardware.KindFan, hardware.KindThermostat:
		return hardware.DeviceKind(kind)
	default:
		return hardware.KindUnknown
	}
}
