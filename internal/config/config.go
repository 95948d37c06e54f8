// Package config loads go-aircanvas configuration: defaults, then an
// optional YAML file, then AIRCANVAS_* environment overrides. Command-line
// flags are applied last by each command.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-aircanvas/pkg/camera"
	"github.com/teslashibe/go-aircanvas/pkg/capture"
	"github.com/teslashibe/go-aircanvas/pkg/drawing"
	"github.com/teslashibe/go-aircanvas/pkg/overlay"
	"github.com/teslashibe/go-aircanvas/pkg/protocol"
	"github.com/teslashibe/go-aircanvas/pkg/simulator"
	"github.com/teslashibe/go-aircanvas/pkg/transport"
	"github.com/teslashibe/go-aircanvas/pkg/web"
)

// ServerAuto selects the backend through mDNS discovery.
const ServerAuto = "auto"

// LogConfig selects the log level and format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig locates the backend.
type ServerConfig struct {
	// URL is the backend base URL (http/https/ws/wss) or "auto".
	URL string `yaml:"url"`

	// DiscoveryTimeout bounds the mDNS lookup when URL is "auto".
	DiscoveryTimeout time.Duration `yaml:"discovery_timeout"`
}

// CanvasConfig sizes the drawing and overlay surfaces.
type CanvasConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// SimulatorConfig configures cmd/handsim.
type SimulatorConfig struct {
	Addr      string           `yaml:"addr"`
	Advertise bool             `yaml:"advertise"`
	Instance  string           `yaml:"instance"`
	Motion    simulator.Config `yaml:"motion"`
}

// App is the full configuration.
type App struct {
	Log       LogConfig        `yaml:"log"`
	Server    ServerConfig     `yaml:"server"`
	Camera    camera.Config    `yaml:"camera"`
	Capture   capture.Config   `yaml:"capture"`
	Transport transport.Config `yaml:"transport"`
	Canvas    CanvasConfig     `yaml:"canvas"`
	Overlay   overlay.Config   `yaml:"overlay"`
	Brush     drawing.Brush    `yaml:"brush"`
	Web       web.Config       `yaml:"web"`
	Simulator SimulatorConfig  `yaml:"simulator"`
}

// Default returns the built-in configuration.
func Default() App {
	return App{
		Log:     LogConfig{Level: "info"},
		Server:  ServerConfig{URL: "http://localhost:8000", DiscoveryTimeout: 3 * time.Second},
		Camera:  camera.DefaultConfig(),
		Capture: capture.DefaultConfig(),
		// URL is filled in from Server at startup.
		Transport: transport.DefaultConfig(""),
		Canvas:    CanvasConfig{Width: 640, Height: 480},
		Overlay:   overlay.DefaultConfig(),
		Brush:     drawing.DefaultBrush(),
		Web:       web.DefaultConfig(),
		Simulator: SimulatorConfig{Addr: ":8000", Motion: simulator.DefaultConfig()},
	}
}

// Load builds the configuration. An empty path skips the file; a missing
// file is an error.
func Load(path string) (App, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overlays AIRCANVAS_* environment variables.
func (c *App) ApplyEnv() {
	c.Log.Level = Env("LOG_LEVEL", c.Log.Level)
	c.Log.Format = Env("LOG_FORMAT", c.Log.Format)

	c.Server.URL = Env("SERVER", c.Server.URL)
	c.Server.DiscoveryTimeout = EnvDuration("DISCOVERY_TIMEOUT", c.Server.DiscoveryTimeout)

	c.Camera.Backend = camera.Backend(Env("CAMERA_BACKEND", string(c.Camera.Backend)))
	c.Camera.Device = EnvInt("CAMERA_DEVICE", c.Camera.Device)
	c.Camera.Mirror = EnvBool("CAMERA_MIRROR", c.Camera.Mirror)

	c.Capture.TargetFPS = EnvInt("CAPTURE_FPS", c.Capture.TargetFPS)
	c.Capture.Encoding = protocol.Encoding(Env("CAPTURE_ENCODING", string(c.Capture.Encoding)))
	c.Capture.Quality = EnvInt("CAPTURE_QUALITY", c.Capture.Quality)

	c.Transport.ReconnectDelay = EnvDuration("RECONNECT_DELAY", c.Transport.ReconnectDelay)

	c.Web.Addr = Env("WEB_ADDR", c.Web.Addr)

	c.Simulator.Addr = Env("SIM_ADDR", c.Simulator.Addr)
	c.Simulator.Advertise = EnvBool("SIM_ADVERTISE", c.Simulator.Advertise)
}

// Validate checks every section. The transport URL is not checked here
// because it is derived from Server at startup.
func (c *App) Validate() error {
	var errs []error
	if c.Server.URL == "" {
		errs = append(errs, errors.New("server.url is required"))
	}
	if err := c.Camera.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("camera: %w", err))
	}
	if err := c.Capture.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("capture: %w", err))
	}
	tc := c.Transport
	tc.URL = "ws://localhost/ws"
	if err := tc.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Canvas.Width < 1 || c.Canvas.Height < 1 {
		errs = append(errs, fmt.Errorf("canvas: size must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height))
	}
	if problems := c.Brush.Validate(); len(problems) > 0 {
		errs = append(errs, fmt.Errorf("brush: %v", problems))
	}
	if err := c.Web.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Simulator.Motion.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("simulator: %w", err))
	}
	return errors.Join(errs...)
}
