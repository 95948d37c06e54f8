package session

import "errors"

var (
	// ErrAlreadyStarted is returned by Start on a running session.
	ErrAlreadyStarted = errors.New("session: already started")

	// ErrStopped is returned by operations on a stopped session.
	ErrStopped = errors.New("session: stopped")
)
