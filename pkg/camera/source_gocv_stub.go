//go:build !gocv

package camera

import (
	"fmt"
	"log/slog"
)

const gocvAvailable = false

// newGoCVSource returns an error when built without the gocv tag.
func newGoCVSource(cfg Config, logger *slog.Logger) (Source, error) {
	return nil, &Error{Backend: string(BackendGoCV), Device: cfg.Device, Kind: ErrUnavailable,
		Cause: fmt.Errorf("rebuild with -tags gocv")}
}
