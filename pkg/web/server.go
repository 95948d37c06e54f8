package web

import (
	"bytes"
	"context"
	"embed"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-aircanvas/pkg/drawing"
	"github.com/teslashibe/go-aircanvas/pkg/hub"
	"github.com/teslashibe/go-aircanvas/pkg/session"
)

//go:embed static
var staticFS embed.FS

// Controller is the session surface the dashboard reads and drives.
type Controller interface {
	Status() session.Status
	Clear() error
	CanvasPNG(w io.Writer) error
	OverlayPNG(w io.Writer) error
}

// LogEntry is one dashboard log line.
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Server is the dashboard HTTP server.
type Server struct {
	cfg    Config
	app    *fiber.App
	logger *slog.Logger

	ctrl  Controller
	brush *drawing.BrushStore

	statusHub  *hub.Hub
	previewHub *hub.Hub

	logs   []LogEntry
	logsMu sync.RWMutex

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewServer creates the dashboard. brush may be nil, in which case the
// brush routes report 404.
func NewServer(cfg Config, ctrl Controller, brush *drawing.BrushStore, logger *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "web")

	s := &Server{
		cfg:        cfg,
		logger:     logger,
		ctrl:       ctrl,
		brush:      brush,
		statusHub:  hub.New("status", logger),
		previewHub: hub.New("preview", logger),
		logs:       make([]LogEntry, 0, cfg.LogBuffer),
		stop:       make(chan struct{}),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Air Canvas",
		DisableStartupMessage: true,
	})
	if cfg.CORS {
		app.Use(cors.New())
	}

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/brush", s.handleGetBrush)
	api.Put("/brush", s.handlePutBrush)
	api.Get("/palettes", s.handlePalettes)
	api.Post("/clear", s.handleClear)
	api.Get("/canvas.png", s.handleCanvasPNG)
	api.Get("/overlay.png", s.handleOverlayPNG)
	api.Get("/logs", s.handleLogs)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/preview", websocket.New(s.handlePreviewWS))

	app.Use("/", filesystem.New(filesystem.Config{
		Root:       http.FS(staticFS),
		PathPrefix: "static",
		Index:      "/index.html",
	}))

	s.app = app
	return s, nil
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App { return s.app }

// Start runs the hubs and the preview pusher, then serves on cfg.Addr.
// It blocks until the server stops.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	s.startBackground()
	s.logger.Info("dashboard listening", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("dashboard server error", "error", err)
		}
	}()
}

func (s *Server) startBackground() {
	go s.statusHub.Run()
	go s.previewHub.Run()
	s.wg.Add(1)
	go s.previewLoop()
}

// previewLoop pushes the canvas PNG to preview clients.
func (s *Server) previewLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.PreviewInterval)
	defer ticker.Stop()

	var buf bytes.Buffer
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if s.previewHub.ClientCount() == 0 {
				continue
			}
			buf.Reset()
			if err := s.ctrl.CanvasPNG(&buf); err != nil {
				s.logger.Debug("preview encode failed", "error", err)
				continue
			}
			s.previewHub.BroadcastBinary(bytes.Clone(buf.Bytes()))
		}
	}
}

// PublishStatus pushes st to /ws/status clients. Suitable as a
// session.OnStatus callback.
func (s *Server) PublishStatus(st session.Status) {
	if s.statusHub.ClientCount() == 0 {
		return
	}
	if err := s.statusHub.BroadcastJSON(st); err != nil {
		s.logger.Debug("status encode failed", "error", err)
	}
}

// AddLog records a dashboard log entry.
func (s *Server) AddLog(kind, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    kind,
		Message: message,
	}
	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > s.cfg.LogBuffer {
		s.logs = s.logs[len(s.logs)-s.cfg.LogBuffer:]
	}
	s.logsMu.Unlock()
}

// Logs returns a copy of the dashboard log.
func (s *Server) Logs() []LogEntry {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return append([]LogEntry(nil), s.logs...)
}

// Shutdown stops the preview pusher, the hubs and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
	s.statusHub.Stop()
	s.previewHub.Stop()
	return s.app.ShutdownWithContext(ctx)
}
