package camera

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for camera acquisition. All of them are terminal for a
// capture session.
var (
	// ErrPermissionDenied is returned when the OS refuses camera access.
	ErrPermissionDenied = errors.New("camera: permission denied")

	// ErrNoDevice is returned when no camera exists at the configured index.
	ErrNoDevice = errors.New("camera: no device")

	// ErrDeviceBusy is returned when another process holds the camera.
	ErrDeviceBusy = errors.New("camera: device busy")

	// ErrUnavailable is returned when the backend is not compiled in.
	ErrUnavailable = errors.New("camera: backend unavailable")

	// ErrClosed is returned when reading from a closed source.
	ErrClosed = errors.New("camera: source closed")

	// ErrReadFailed is returned when a frame could not be grabbed.
	ErrReadFailed = errors.New("camera: read failed")
)

// Error describes a failed camera acquisition.
type Error struct {
	// Backend is the source name (e.g. "gocv").
	Backend string

	// Device is the device index.
	Device int

	// Kind is one of the sentinel errors above.
	Kind error

	// Cause is the underlying backend error, if any.
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s device %d: %v: %v", e.Backend, e.Device, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s device %d: %v", e.Backend, e.Device, e.Kind)
}

// Unwrap returns the sentinel kind so errors.Is matches it.
func (e *Error) Unwrap() error {
	return e.Kind
}

// ClassifyOpenError maps a backend error message onto a sentinel kind.
func ClassifyOpenError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission"), strings.Contains(msg, "not authorized"), strings.Contains(msg, "denied"):
		return ErrPermissionDenied
	case strings.Contains(msg, "busy"), strings.Contains(msg, "in use"):
		return ErrDeviceBusy
	default:
		return ErrNoDevice
	}
}

// IsTerminal reports whether err ends a capture session.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrNoDevice) ||
		errors.Is(err, ErrDeviceBusy) ||
		errors.Is(err, ErrUnavailable)
}
