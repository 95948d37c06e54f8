// handsim is a stand-in hand-tracking backend. It accepts camera frames on
// /ws and answers each one with a synthetic landmark packet, so the client
// can be exercised without a camera-facing model.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-aircanvas/internal/config"
	"github.com/teslashibe/go-aircanvas/internal/log"
	"github.com/teslashibe/go-aircanvas/pkg/discovery"
	"github.com/teslashibe/go-aircanvas/pkg/simulator"
)

func main() {
	path := flag.String("config", os.Getenv("AIRCANVAS_CONFIG"), "YAML config file")
	addr := flag.String("addr", "", "Listen address (default from config)")
	advertise := flag.Bool("advertise", false, "Announce the backend over mDNS")
	shape := flag.String("shape", "", "Shape label reported after each stroke")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}
	if *debug {
		cfg.Log.Level = "debug"
	}
	if *addr != "" {
		cfg.Simulator.Addr = *addr
	}
	if *advertise {
		cfg.Simulator.Advertise = true
	}
	if *shape != "" {
		cfg.Simulator.Motion.Shape = *shape
	}

	log.InitWithOptions(log.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logger := log.Component(log.L(), "handsim")

	if err := run(cfg.Simulator, logger); err != nil {
		logger.Error("simulator failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.SimulatorConfig, logger *slog.Logger) error {
	srv, err := simulator.NewServer(cfg.Motion, logger)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}

	if cfg.Advertise {
		port := ln.Addr().(*net.TCPAddr).Port
		adv, err := discovery.Advertise(cfg.Instance, port, logger)
		if err != nil {
			logger.Warn("mDNS advertisement disabled", "error", err)
		} else {
			defer adv.Shutdown()
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", "clients", srv.ClientCount())
	return srv.Shutdown()
}
