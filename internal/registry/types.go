package registry

import "github.com/emberhall/hearth-core/internal/hardware"

// Device is a controllable entity in the registry snapshot.
//
// Fields are replaced wholesale on every reload; nothing mutates a Device in
// place after it has been published. Brightness is present only when the
// hardware layer reported a brightness channel for the device.
type Device struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Room       string     `json:"room,omitempty"`
	Type       DeviceType `json:"type"`
	IsOn       bool       `json:"isOn"`
	Brightness *int       `json:"brightness,omitempty"`

	// Writable reports whether a power write channel was indexed for the
	// device. Not serialised; the facade exposes capabilities via /schema.
	Writable bool `json:"-"`
}

// Clone creates an independent copy of the Device.
// The brightness pointer is duplicated so callers can never reach back into
// a published snapshot.
func (d *Device) Clone() *Device {
	if d == nil {
		return nil
	}
	cpy := *d
	if d.Brightness != nil {
		v := *d.Brightness
		cpy.Brightness = &v
	}
	return &cpy
}

// DeviceType classifies a device by its primary service.
type DeviceType string

// DeviceType constants.
const (
	TypeLight      DeviceType = "light"
	TypeOutlet     DeviceType = "outlet"
	TypeSwitch     DeviceType = "switch"
	TypeFan        DeviceType = "fan"
	TypeThermostat DeviceType = "thermostat"
	TypeUnknown    DeviceType = "unknown"
)

// Scene is a named, pre-defined set of hardware actions.
type Scene struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Home        string `json:"home"`
	ActionCount int    `json:"actions"`
}

// RoomSummary aggregates the devices grouped under one room name.
type RoomSummary struct {
	Name        string `json:"name"`
	DeviceCount int    `json:"deviceCount"`
	OnCount     int    `json:"onCount"`
}

// deviceFromRecord converts a hardware inventory record into a Device.
func deviceFromRecord(rec hardware.DeviceRecord) Device {
	d := Device{
		ID:       rec.ID,
		Name:     rec.Name,
		Room:     rec.Room,
		Type:     typeFromKind(rec.Kind),
		IsOn:     rec.On,
		Writable: rec.Writable,
	}
	if rec.Brightness != nil {
		v := *rec.Brightness
		d.Brightness = &v
	}
	return d
}

// typeFromKind maps the hardware kind onto the registry's device type.
// Unrecognised kinds collapse to TypeUnknown rather than leaking through.
func typeFromKind(kind hardware.DeviceKind) DeviceType {
	switch kind {
	case hardware.KindLight:
		return TypeLight
	case hardware.KindOutlet:
		return TypeOutlet
	case hardware.KindSwitch:
		return TypeSwitch
	case hardware.KindFan:
		return TypeFan
	case hardware.KindThermostat:
		return TypeThermostat
	default:
		return TypeUnknown
	}
}

// sceneFromRecord converts a hardware scene record into a Scene.
func sceneFromRecord(rec hardware.SceneRecord) Scene {
	return Scene{
		ID:          rec.ID,
		Name:        rec.Name,
		Home:        rec.Home,
		ActionCount: rec.ActionCount,
	}
}
