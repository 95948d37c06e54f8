package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-aircanvas/internal/config"
	"github.com/teslashibe/go-aircanvas/internal/httpc"
	"github.com/teslashibe/go-aircanvas/pkg/camera"
	"github.com/teslashibe/go-aircanvas/pkg/canvas"
	"github.com/teslashibe/go-aircanvas/pkg/capture"
	"github.com/teslashibe/go-aircanvas/pkg/discovery"
	"github.com/teslashibe/go-aircanvas/pkg/drawing"
	"github.com/teslashibe/go-aircanvas/pkg/overlay"
	"github.com/teslashibe/go-aircanvas/pkg/session"
	"github.com/teslashibe/go-aircanvas/pkg/transport"
	"github.com/teslashibe/go-aircanvas/pkg/web"
)

// app owns every long-lived component of the client.
type app struct {
	cfg    config.App
	logger *slog.Logger

	drawSurface    *canvas.GGSurface
	overlaySurface *canvas.GGSurface
	brush          *drawing.BrushStore
	session        *session.Session
	web            *web.Server
}

func newApp(ctx context.Context, cfg config.App, withWeb bool, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	base, err := a.resolveServer(ctx)
	if err != nil {
		return nil, err
	}
	endpoint, err := transport.EndpointURL(base)
	if err != nil {
		return nil, err
	}

	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	if h, err := httpc.Probe(probeCtx, base); err != nil {
		logger.Warn("backend health check failed, will keep retrying", "server", base, "error", err)
	} else {
		logger.Info("backend reachable", "server", base, "status", h.Status)
	}
	cancel()

	var cam camera.Source
	cam, err = camera.NewSource(cfg.Camera, logger)
	if camera.IsTerminal(err) {
		// Keep running so the status surfaces CAMERA ERROR.
		cam = camera.NewUnavailableSource(cfg.Camera, err)
	} else if err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}

	tcfg := cfg.Transport
	tcfg.URL = endpoint
	conn, err := transport.NewClient(tcfg, logger)
	if err != nil {
		cam.Close()
		return nil, fmt.Errorf("transport: %w", err)
	}

	sched, err := capture.NewScheduler(cfg.Capture, cam, conn, logger)
	if err != nil {
		cam.Close()
		return nil, fmt.Errorf("capture: %w", err)
	}

	a.drawSurface = canvas.NewSurface(cfg.Canvas.Width, cfg.Canvas.Height)
	a.overlaySurface = canvas.NewSurface(cfg.Canvas.Width, cfg.Canvas.Height)
	a.brush = drawing.NewBrushStore(cfg.Brush)

	a.session, err = session.New(session.Deps{
		Capture: sched,
		Conn:    conn,
		Overlay: overlay.NewRenderer(a.overlaySurface, cfg.Overlay),
		Drawing: drawing.NewMachine(a.drawSurface, a.brush, logger),
		Logger:  logger,
	})
	if err != nil {
		cam.Close()
		return nil, err
	}

	if withWeb {
		a.web, err = web.NewServer(cfg.Web, a.session, a.brush, logger)
		if err != nil {
			cam.Close()
			return nil, fmt.Errorf("web: %w", err)
		}
		a.wireDashboard()
	}
	return a, nil
}

// resolveServer returns the backend base URL, browsing mDNS for "auto".
func (a *app) resolveServer(ctx context.Context) (string, error) {
	if a.cfg.Server.URL != config.ServerAuto {
		return a.cfg.Server.URL, nil
	}
	a.logger.Info("looking for backend", "service", discovery.ServiceType)
	addr, err := discovery.Lookup(ctx, a.cfg.Server.DiscoveryTimeout, a.logger)
	if err != nil {
		return "", fmt.Errorf("discover backend: %w", err)
	}
	return discovery.BaseURL(addr, false), nil
}

func (a *app) wireDashboard() {
	var lastText, lastConn string
	a.session.OnStatus(func(st session.Status) {
		a.web.PublishStatus(st)
		if st.ModeText != lastText {
			a.web.AddLog("mode", st.ModeText)
			lastText = st.ModeText
		}
		if st.Connection != lastConn {
			a.web.AddLog("connection", st.Connection)
			lastConn = st.Connection
		}
	})
	a.brush.OnChange = func(b drawing.Brush) {
		a.logger.Debug("brush changed", "color", b.Color, "width", b.Width)
	}
}

// Run starts the pipeline and blocks until ctx is cancelled. A camera
// failure is logged and the dashboard keeps serving the error status.
func (a *app) Run(ctx context.Context) error {
	if a.web != nil {
		a.web.StartAsync()
	}

	if err := a.session.Start(ctx); err != nil {
		if !camera.IsTerminal(err) {
			return err
		}
		a.logger.Error("camera unavailable", "error", err)
	}

	<-ctx.Done()
	a.logger.Info("shutting down")
	return nil
}

// Shutdown stops the session and the dashboard, then frees the surfaces.
func (a *app) Shutdown() {
	var errs []error
	if a.session != nil {
		errs = append(errs, a.session.Stop())
	}
	if a.web != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		errs = append(errs, a.web.Shutdown(ctx))
		cancel()
	}
	if a.drawSurface != nil {
		a.drawSurface.Close()
	}
	if a.overlaySurface != nil {
		a.overlaySurface.Close()
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("shutdown", "error", err)
	}
}
