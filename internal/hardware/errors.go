package hardware

import "errors"

// Domain errors for hardware adapters.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnknownDevice is returned when a device id was never indexed.
	ErrUnknownDevice = errors.New("hardware: unknown device")

	// ErrUnknownScene is returned when a scene id was never indexed.
	ErrUnknownScene = errors.New("hardware: unknown scene")

	// ErrNotWritable is returned when a device has no write channel for the
	// requested characteristic (e.g. brightness on a plain outlet).
	ErrNotWritable = errors.New("hardware: characteristic not writable")

	// ErrUnavailable is returned when the hardware transport is down.
	ErrUnavailable = errors.New("hardware: transport unavailable")
)
