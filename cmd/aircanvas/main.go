// Air Canvas client: streams camera frames to the hand-tracking backend and
// turns the returned landmarks into a skeleton overlay and ink strokes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/teslashibe/go-aircanvas/internal/config"
	"github.com/teslashibe/go-aircanvas/internal/log"
	"github.com/teslashibe/go-aircanvas/pkg/camera"
	"github.com/teslashibe/go-aircanvas/pkg/protocol"
)

func main() {
	cfg, noWeb, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	log.InitWithOptions(log.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logger := log.Component(log.L(), "aircanvas")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := newApp(ctx, cfg, !noWeb, logger)
	if err != nil {
		logger.Error("initialization failed", "error", err)
		os.Exit(1)
	}

	err = app.Run(ctx)
	app.Shutdown()
	if err != nil {
		logger.Error("runtime error", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig() (config.App, bool, error) {
	path := flag.String("config", os.Getenv("AIRCANVAS_CONFIG"), "YAML config file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	server := flag.String("server", "", `Backend base URL, or "auto" for mDNS discovery`)
	backend := flag.String("camera", "", "Camera backend: auto, gocv, mock")
	device := flag.Int("device", -1, "Camera device index")
	preset := flag.String("preset", "", "Camera preset: "+strings.Join(camera.PresetNames(), ", "))
	encoding := flag.String("encoding", "", "Outbound frame encoding: rgba, json-jpeg")
	fps := flag.Int("fps", 0, "Target outbound frame rate")
	webAddr := flag.String("web", "", "Dashboard listen address")
	noWeb := flag.Bool("no-web", false, "Disable the dashboard")
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		return cfg, false, err
	}

	if *debug {
		cfg.Log.Level = "debug"
	}
	if *server != "" {
		cfg.Server.URL = *server
	}
	if *preset != "" {
		p := camera.GetPreset(*preset)
		if p == nil {
			return cfg, false, fmt.Errorf("unknown camera preset %q", *preset)
		}
		p.Backend, p.Device, p.Mirror = cfg.Camera.Backend, cfg.Camera.Device, cfg.Camera.Mirror
		cfg.Camera = *p
	}
	if *backend != "" {
		cfg.Camera.Backend = camera.Backend(*backend)
	}
	if *device >= 0 {
		cfg.Camera.Device = *device
	}
	if *encoding != "" {
		cfg.Capture.Encoding = protocol.Encoding(*encoding)
	}
	if *fps > 0 {
		cfg.Capture.TargetFPS = *fps
	}
	if *webAddr != "" {
		cfg.Web.Addr = *webAddr
	}

	return cfg, *noWeb, cfg.Validate()
}
