package command

import "errors"

// Sentinel errors returned by bridge operations.
// Callers check these with errors.Is.
var (
	// ErrTimeout indicates the hardware did not report completion within the
	// operation deadline. The write may still land later; the next snapshot
	// reload reflects whatever actually happened.
	ErrTimeout = errors.New("command: operation timed out")

	// ErrFailed indicates the hardware reported the write failed.
	ErrFailed = errors.New("command: hardware write failed")
)
