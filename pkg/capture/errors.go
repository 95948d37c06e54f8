package capture

import "errors"

var (
	// ErrAlreadyStarted is returned by Start on a running scheduler.
	ErrAlreadyStarted = errors.New("capture: already started")

	// ErrStopped is returned by Start after Stop.
	ErrStopped = errors.New("capture: stopped")
)
