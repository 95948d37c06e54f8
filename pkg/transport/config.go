// Package transport maintains the WebSocket link to the inference server.
// The connection is re-established after any unexpected close; outbound
// frames are dropped while it is down.
package transport

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds connection parameters.
type Config struct {
	// URL is the WebSocket endpoint (ws:// or wss://).
	URL string `yaml:"url" json:"url"`

	// ReconnectDelay is the wait between a close and the next attempt.
	ReconnectDelay time.Duration `yaml:"reconnect_delay" json:"reconnect_delay"`

	HandshakeTimeout time.Duration `yaml:"handshake_timeout" json:"handshake_timeout"`

	// WriteTimeout bounds a single frame or ping write. Zero disables it.
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`

	// PingPeriod enables keepalive pings when non-zero. The link is
	// considered dead after two periods without a pong or message.
	PingPeriod time.Duration `yaml:"ping_period" json:"ping_period"`

	// ReadLimit caps inbound message size in bytes.
	ReadLimit int64 `yaml:"read_limit" json:"read_limit"`
}

// DefaultConfig returns a config for the given endpoint.
func DefaultConfig(endpoint string) Config {
	return Config{
		URL:              endpoint,
		ReconnectDelay:   time.Second,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		PingPeriod:       30 * time.Second,
		ReadLimit:        1 << 20,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("transport: url is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("transport: invalid url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("transport: url scheme must be ws or wss, got %q", u.Scheme)
	}
	if c.ReconnectDelay <= 0 {
		return errors.New("transport: reconnect_delay must be positive")
	}
	if c.HandshakeTimeout <= 0 {
		return errors.New("transport: handshake_timeout must be positive")
	}
	if c.WriteTimeout < 0 {
		return errors.New("transport: write_timeout must not be negative")
	}
	if c.PingPeriod < 0 {
		return errors.New("transport: ping_period must not be negative")
	}
	return nil
}

// EndpointURL derives the WebSocket endpoint from a server base URL:
// http becomes ws, https becomes wss, and /ws is appended to the path.
func EndpointURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("transport: invalid server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("transport: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("transport: server url has no host")
	}
	if !strings.HasSuffix(u.Path, "/ws") {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	}
	return u.String(), nil
}
