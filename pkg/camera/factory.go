package camera

import (
	"fmt"
	"log/slog"
)

// NewSource creates a camera source with the given configuration.
// BackendAuto means the real camera; when no capture backend is compiled
// in it fails with ErrUnavailable instead of falling back to the mock.
func NewSource(cfg Config, logger *slog.Logger) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	backend := cfg.Backend
	if backend == BackendAuto {
		var ok bool
		if backend, ok = detectBestBackend(); !ok {
			return nil, &Error{Backend: string(BackendAuto), Device: cfg.Device, Kind: ErrUnavailable,
				Cause: fmt.Errorf("no capture backend compiled in, rebuild with -tags gocv or use the mock backend")}
		}
	}

	logger.Info("creating camera source",
		"backend", backend,
		"device", cfg.Device,
		"width", cfg.Width,
		"height", cfg.Height,
		"framerate", cfg.Framerate,
	)

	switch backend {
	case BackendMock:
		return NewMockSource(cfg, logger), nil
	case BackendGoCV:
		return newGoCVSource(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}

// detectBestBackend returns the real camera backend, if one is compiled in.
func detectBestBackend() (Backend, bool) {
	if gocvAvailable {
		return BackendGoCV, true
	}
	return "", false
}
