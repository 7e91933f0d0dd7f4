package registry

import "errors"

// Domain errors for the registry package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, registry.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when no device resolves from a query.
	ErrDeviceNotFound = errors.New("registry: device not found")

	// ErrSceneNotFound is returned when no scene resolves from a query.
	ErrSceneNotFound = errors.New("registry: scene not found")
)
