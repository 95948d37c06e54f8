package simulator

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-aircanvas/pkg/protocol"
)

// Client is one connected capture client.
type Client struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time

	gen *Generator

	mu       sync.Mutex
	lastSeen time.Time
}

func (c *Client) reply(in *protocol.Inbound) error {
	data, err := in.Bytes()
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

// Stats contains server counters.
type Stats struct {
	Clients        int    `json:"clients"`
	FramesAccepted uint64 `json:"frames_accepted"`
	FramesRejected uint64 `json:"frames_rejected"`
	PacketsSent    uint64 `json:"packets_sent"`
}

// Server is the simulated backend.
type Server struct {
	cfg    Config
	logger *slog.Logger
	app    *fiber.App

	mu      sync.RWMutex
	clients map[string]*Client

	accepted atomic.Uint64
	rejected atomic.Uint64
	sent     atomic.Uint64
}

// NewServer creates the simulator with its routes registered.
func NewServer(cfg Config, logger *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		logger:  logger.With("component", "simulator"),
		clients: make(map[string]*Client),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Air Canvas Simulator",
		DisableStartupMessage: true,
	})
	s.RegisterRoutes(app)
	s.app = app
	return s, nil
}

// RegisterRoutes registers the backend routes on app.
func (s *Server) RegisterRoutes(app *fiber.App) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "clients": s.ClientCount()})
	})
	app.Get("/api/stats", func(c *fiber.Ctx) error {
		return c.JSON(s.Stats())
	})

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(s.handleClient, websocket.Config{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 4 * 1024,
	}))
}

// App returns the fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("simulator listening",
		"addr", ln.Addr().String(),
		"frame", fmt.Sprintf("%dx%d", s.cfg.Width, s.cfg.Height),
	)
	return s.app.Listener(ln)
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleClient(conn *websocket.Conn) {
	client := &Client{
		ID:        uuid.NewString(),
		Conn:      conn,
		Connected: time.Now(),
		gen:       NewGenerator(s.cfg),
		lastSeen:  time.Now(),
	}

	s.mu.Lock()
	s.clients[client.ID] = client
	n := len(s.clients)
	s.mu.Unlock()
	s.logger.Info("client connected", "client", client.ID, "clients", n)

	defer func() {
		s.mu.Lock()
		delete(s.clients, client.ID)
		n := len(s.clients)
		s.mu.Unlock()
		s.logger.Info("client disconnected", "client", client.ID, "clients", n, "replies", client.gen.Count())
	}()

	conn.SetReadLimit(int64(protocol.FrameSize(s.cfg.Width, s.cfg.Height)) + 1024)

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("read failed", "client", client.ID, "error", err)
			}
			return
		}

		client.mu.Lock()
		client.lastSeen = time.Now()
		client.mu.Unlock()

		if err := s.checkFrame(mt, data); err != nil {
			s.rejected.Add(1)
			s.logger.Debug("frame rejected", "client", client.ID, "error", err)
			continue
		}
		s.accepted.Add(1)

		if err := client.reply(client.gen.Next()); err != nil {
			s.logger.Debug("reply failed", "client", client.ID, "error", err)
			return
		}
		s.sent.Add(1)
	}
}

// checkFrame validates an inbound frame in either encoding.
func (s *Server) checkFrame(messageType int, data []byte) error {
	switch messageType {
	case websocket.BinaryMessage:
		_, err := protocol.DecodeRGBA(data, s.cfg.Width, s.cfg.Height)
		return err
	case websocket.TextMessage:
		blob, err := protocol.DecodeJSONFrame(data)
		if err != nil {
			return err
		}
		if _, _, err := image.DecodeConfig(bytes.NewReader(blob)); err != nil {
			return fmt.Errorf("%w: frame is not an image: %v", protocol.ErrMalformed, err)
		}
		return nil
	default:
		return errors.New("unsupported message type")
	}
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Stats returns server counters.
func (s *Server) Stats() Stats {
	return Stats{
		Clients:        s.ClientCount(),
		FramesAccepted: s.accepted.Load(),
		FramesRejected: s.rejected.Load(),
		PacketsSent:    s.sent.Load(),
	}
}
