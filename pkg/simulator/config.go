// Package simulator is a stand-in hand-tracking backend. It accepts frames
// over the same WebSocket contract as the real service and answers each
// accepted frame with a synthetic landmark packet.
package simulator

import (
	"fmt"
)

// Config controls the synthetic hand motion.
type Config struct {
	// Width and Height are the expected raw RGBA frame dimensions.
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`

	// DrawFrames and IdleFrames set the length of each mode phase,
	// counted in replies.
	DrawFrames int `yaml:"draw_frames" json:"draw_frames"`
	IdleFrames int `yaml:"idle_frames" json:"idle_frames"`

	// AbsentEvery hides the hand during the idle phase of every n-th
	// cycle. Zero keeps the hand visible.
	AbsentEvery int `yaml:"absent_every" json:"absent_every"`

	// Radius is the circle radius in normalized units.
	Radius float64 `yaml:"radius" json:"radius"`

	// Step is the angle advanced per reply, in radians.
	Step float64 `yaml:"step" json:"step"`

	// Shape is reported at the end of every draw phase. Empty disables it.
	Shape string `yaml:"shape" json:"shape"`
}

// DefaultConfig returns a 3s draw / 1s idle cycle at 30 FPS.
func DefaultConfig() Config {
	return Config{
		Width:       640,
		Height:      480,
		DrawFrames:  90,
		IdleFrames:  30,
		AbsentEvery: 3,
		Radius:      0.25,
		Step:        0.07,
		Shape:       "circle",
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Width < 1 || c.Height < 1 {
		return fmt.Errorf("frame size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.DrawFrames < 0 || c.IdleFrames < 0 || c.DrawFrames+c.IdleFrames == 0 {
		return fmt.Errorf("phase lengths must be non-negative and not both zero")
	}
	if c.AbsentEvery < 0 {
		return fmt.Errorf("absent_every must not be negative")
	}
	if c.Radius <= 0 || c.Radius > 0.5 {
		return fmt.Errorf("radius must be in (0, 0.5], got %v", c.Radius)
	}
	return nil
}
