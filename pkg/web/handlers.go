package web

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-aircanvas/pkg/drawing"
	"github.com/teslashibe/go-aircanvas/pkg/hub"
	"github.com/teslashibe/go-aircanvas/pkg/session"
)

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.ctrl.Status())
}

func (s *Server) handleGetBrush(c *fiber.Ctx) error {
	if s.brush == nil {
		return fiber.ErrNotFound
	}
	return c.JSON(s.brush.Brush())
}

// handlePutBrush applies a partial brush update: {"color"}, {"width"} or
// {"preset"} in any combination.
func (s *Server) handlePutBrush(c *fiber.Ctx) error {
	if s.brush == nil {
		return fiber.ErrNotFound
	}

	var params map[string]interface{}
	if err := json.Unmarshal(c.Body(), &params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if err := s.brush.Update(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	b := s.brush.Brush()
	s.AddLog("brush", b.Color)
	return c.JSON(b)
}

func (s *Server) handlePalettes(c *fiber.Ctx) error {
	return c.JSON(drawing.Palettes())
}

func (s *Server) handleClear(c *fiber.Ctx) error {
	if err := s.ctrl.Clear(); err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, session.ErrStopped) {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	s.AddLog("canvas", "cleared")
	return c.JSON(fiber.Map{"cleared": true})
}

func (s *Server) handleCanvasPNG(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := s.ctrl.CanvasPNG(&buf); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(buf.Bytes())
}

func (s *Server) handleOverlayPNG(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := s.ctrl.OverlayPNG(&buf); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(buf.Bytes())
}

func (s *Server) handleLogs(c *fiber.Ctx) error {
	return c.JSON(s.Logs())
}

// handleStatusWS sends the current status, then live updates.
func (s *Server) handleStatusWS(conn *websocket.Conn) {
	if err := conn.WriteJSON(s.ctrl.Status()); err != nil {
		return
	}
	s.serveHub(s.statusHub, conn)
}

func (s *Server) handlePreviewWS(conn *websocket.Conn) {
	s.serveHub(s.previewHub, conn)
}

func (s *Server) serveHub(h *hub.Hub, conn *websocket.Conn) {
	client := hub.NewClient(h, conn)
	if client == nil {
		return
	}
	client.Serve()
}
