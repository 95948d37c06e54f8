// Package capture runs the bounded-rate frame capture loop: it grabs camera
// frames on display-refresh ticks, rasterizes them onto a fixed-size surface
// and hands the encoded result to the transport.
package capture

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-aircanvas/pkg/protocol"
)

// Config holds capture loop parameters.
type Config struct {
	// TargetFPS bounds the outbound frame rate.
	TargetFPS int `yaml:"target_fps" json:"target_fps"`

	// RefreshHz is the tick rate of the loop. Ticks the gate rejects do no
	// work. The gate only opens on a tick, so the achieved rate is
	// 1/(ticks needed * tick period); a multiple of TargetFPS loses a whole
	// tick to rounding and timer jitter.
	RefreshHz int `yaml:"refresh_hz" json:"refresh_hz"`

	// Width and Height are the capture surface dimensions.
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`

	// Encoding is the outbound frame encoding.
	Encoding protocol.Encoding `yaml:"encoding" json:"encoding"`

	// Quality is the JPEG quality (1-100) for the json-jpeg encoding.
	Quality int `yaml:"quality" json:"quality"`
}

// DefaultConfig returns 640x480 raw RGBA frames at 30 FPS. The 500 Hz loop
// opens the gate every 17th tick (34ms, about 29.4 FPS) with 0.67ms of
// slack for timer jitter.
func DefaultConfig() Config {
	return Config{
		TargetFPS: 30,
		RefreshHz: 500,
		Width:     640,
		Height:    480,
		Encoding:  protocol.EncodingRGBA,
		Quality:   70,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.TargetFPS < 1 || c.TargetFPS > 120 {
		return fmt.Errorf("target_fps must be between 1 and 120, got %d", c.TargetFPS)
	}
	if c.RefreshHz < 1 || c.RefreshHz > 1000 {
		return fmt.Errorf("refresh_hz must be between 1 and 1000, got %d", c.RefreshHz)
	}
	if c.Width < 1 || c.Height < 1 {
		return fmt.Errorf("capture surface must be at least 1x1, got %dx%d", c.Width, c.Height)
	}
	if !c.Encoding.Valid() {
		return fmt.Errorf("%w: %q", protocol.ErrUnknownEncoding, c.Encoding)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", c.Quality)
	}
	return nil
}

// Interval is the minimum time between accepted frames.
func (c *Config) Interval() time.Duration {
	return time.Second / time.Duration(c.TargetFPS)
}

// RefreshInterval is the loop tick period.
func (c *Config) RefreshInterval() time.Duration {
	return time.Second / time.Duration(c.RefreshHz)
}
