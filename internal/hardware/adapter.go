package hardware

import "context"

// DeviceKind classifies what a device inventory record represents.
type DeviceKind string

// DeviceKind constants.
const (
	KindLight      DeviceKind = "light"
	KindOutlet     DeviceKind = "outlet"
	KindSwitch     DeviceKind = "switch"
	KindFan        DeviceKind = "fan"
	KindThermostat DeviceKind = "thermostat"
	KindUnknown    DeviceKind = "unknown"
)

// DeviceRecord is a raw device inventory entry as reported by the hardware
// layer. The registry converts records into its own Device type; this package
// deliberately knows nothing about resolution, rooms, or snapshots.
type DeviceRecord struct {
	ID         string
	Name       string
	Room       string
	Kind       DeviceKind
	On         bool
	Brightness *int // nil when the device has no brightness channel
	Writable   bool // false when no power write channel was indexed
}

// SceneRecord is a raw scene inventory entry.
type SceneRecord struct {
	ID          string
	Name        string
	Home        string
	ActionCount int
}

// Adapter is the capability interface the control core consumes.
//
// Inventory reads are synchronous snapshot fetches. Writes and scene execution
// are asynchronous: each returns a one-shot completion channel that delivers
// exactly one result (nil on success) and is then closed, or never delivers at
// all if the hardware swallows the signal. Callers own the wait bound; an
// adapter must never rely on anyone draining its channels.
type Adapter interface {
	// Devices fetches the full device inventory.
	Devices(ctx context.Context) ([]DeviceRecord, error)

	// Scenes fetches the full scene inventory.
	Scenes(ctx context.Context) ([]SceneRecord, error)

	// WritePower requests an on/off write for the device.
	WritePower(id string, on bool) <-chan error

	// WriteBrightness requests a brightness write (0-100) for the device.
	WriteBrightness(id string, level int) <-chan error

	// ExecuteScene requests execution of a scene.
	ExecuteScene(id string) <-chan error
}

// Completed returns a one-shot completion channel that already carries the
// given result. Adapters use it for requests that fail before reaching the
// hardware (unknown device, capability missing).
func Completed(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	close(ch)
	return ch
}
