package camera

import (
	"context"
	"image"
	"io"
)

// Source captures frames from a camera or other video input.
type Source interface {
	// Open acquires the device. Errors are *Error values wrapping one of
	// the sentinel kinds and are not retried.
	Open(ctx context.Context) error

	// Read returns the most recent frame. It does not block for longer
	// than one device frame interval.
	Read() (image.Image, error)

	// Config returns the camera configuration.
	Config() Config

	// Name returns the backend name (e.g., "gocv", "mock").
	Name() string

	// Close stops all camera tracks and releases the device.
	// It is safe to call Close multiple times.
	io.Closer
}

// SourceStats contains statistics about a camera source.
type SourceStats struct {
	FramesRead int64 `json:"frames_read"`
	ReadErrors int64 `json:"read_errors"`
}
