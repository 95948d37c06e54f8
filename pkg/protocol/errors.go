package protocol

import "errors"

var (
	// ErrMalformed is returned when a message cannot be decoded.
	ErrMalformed = errors.New("protocol: malformed message")

	// ErrFrameSize is returned when a raw frame does not match width*height*4.
	ErrFrameSize = errors.New("protocol: frame size mismatch")

	// ErrUnknownEncoding is returned for an unsupported outbound encoding.
	ErrUnknownEncoding = errors.New("protocol: unknown encoding")
)
