package camera

import (
	"context"
	"image"
)

// UnavailableSource stands in for a camera that could not be created. Open
// always returns the creation error, so the capture session reports it as
// a terminal camera failure.
type UnavailableSource struct {
	cfg Config
	err error
}

// NewUnavailableSource wraps err, which should be an *Error.
func NewUnavailableSource(cfg Config, err error) *UnavailableSource {
	return &UnavailableSource{cfg: cfg, err: err}
}

func (u *UnavailableSource) Open(ctx context.Context) error { return u.err }

func (u *UnavailableSource) Read() (image.Image, error) { return nil, ErrReadFailed }

func (u *UnavailableSource) Config() Config { return u.cfg }

func (u *UnavailableSource) Name() string { return "unavailable" }

func (u *UnavailableSource) Close() error { return nil }
