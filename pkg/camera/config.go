// Package camera provides the camera sources frames are captured from.
package camera

import "fmt"

// Backend selects the camera implementation.
type Backend string

const (
	BackendAuto Backend = "auto"
	BackendMock Backend = "mock"
	BackendGoCV Backend = "gocv"
)

// Config holds all camera configuration parameters.
type Config struct {
	// Backend is the source implementation: "auto", "mock" or "gocv".
	Backend Backend `yaml:"backend" json:"backend"`

	// Device is the capture device index (e.g. 0 for /dev/video0).
	Device int `yaml:"device" json:"device"`

	// === Resolution ===
	Width     int `yaml:"width" json:"width"`         // Requested frame width in pixels
	Height    int `yaml:"height" json:"height"`       // Requested frame height in pixels
	Framerate int `yaml:"framerate" json:"framerate"` // Requested device FPS

	// Mirror flips frames horizontally so the preview behaves like a mirror.
	Mirror bool `yaml:"mirror" json:"mirror"`
}

// Device limits.
const (
	MaxWidth     = 3840
	MaxHeight    = 2160
	MaxFramerate = 120
)

// DefaultConfig returns the 640x480 configuration. The device is asked for
// 60 FPS so the outbound rate limit, not the sensor, bounds backend load.
func DefaultConfig() Config {
	return Config{
		Backend:   BackendAuto,
		Device:    0,
		Width:     640,
		Height:    480,
		Framerate: 60,
		Mirror:    false,
	}
}

// Validate checks if the config values are within valid ranges.
func (c *Config) Validate() error {
	var errors []string

	switch c.Backend {
	case BackendAuto, BackendMock, BackendGoCV:
	default:
		errors = append(errors, fmt.Sprintf("backend must be auto, mock or gocv, got %q", c.Backend))
	}
	if c.Device < 0 {
		errors = append(errors, "device must be >= 0")
	}
	if c.Width < 160 || c.Width > MaxWidth {
		errors = append(errors, fmt.Sprintf("width must be between 160 and %d", MaxWidth))
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errors = append(errors, fmt.Sprintf("height must be between 120 and %d", MaxHeight))
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, fmt.Sprintf("framerate must be between 1 and %d", MaxFramerate))
	}

	if len(errors) > 0 {
		return fmt.Errorf("invalid camera config: %v", errors)
	}
	return nil
}
