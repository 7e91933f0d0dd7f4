package mqttha

import "errors"

// Sentinel errors returned by the adapter.
var (
	// ErrHubOffline indicates the hub published an offline status or the
	// broker connection is down, so commands cannot reach the hardware.
	ErrHubOffline = errors.New("mqttha: hub offline")

	// ErrCommandRejected indicates the hub received the command but
	// reported a failure executing it.
	ErrCommandRejected = errors.New("mqttha: hub rejected command")

	// ErrInvalidPayload indicates a hub message could not be decoded.
	ErrInvalidPayload = errors.New("mqttha: invalid payload")

	// ErrInvalidLevel indicates a brightness value outside 0-100.
	ErrInvalidLevel = errors.New("mqttha: brightness out of range")
)
