// Package web serves the local dashboard: live status, brush controls,
// canvas and overlay previews, and the clear action.
package web

import (
	"errors"
	"time"
)

// Config holds dashboard settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"addr" json:"addr"`

	// PreviewInterval is how often the canvas preview is pushed to
	// /ws/preview clients.
	PreviewInterval time.Duration `yaml:"preview_interval" json:"preview_interval"`

	// LogBuffer is the number of dashboard log entries kept.
	LogBuffer int `yaml:"log_buffer" json:"log_buffer"`

	CORS bool `yaml:"cors" json:"cors"`
}

// DefaultConfig returns the default dashboard config.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		PreviewInterval: 200 * time.Millisecond,
		LogBuffer:       500,
		CORS:            true,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("web: addr is required")
	}
	if c.PreviewInterval < 10*time.Millisecond {
		return errors.New("web: preview_interval must be at least 10ms")
	}
	if c.LogBuffer < 1 {
		return errors.New("web: log_buffer must be positive")
	}
	return nil
}
