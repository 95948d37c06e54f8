// Package drawing turns the landmark stream into persistent ink strokes.
package drawing

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-aircanvas/pkg/canvas"
	"github.com/teslashibe/go-aircanvas/pkg/protocol"
)

// State is the stroke state.
type State int

const (
	StateIdle State = iota
	StateDrawing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDrawing:
		return "drawing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// DefaultBackground is the flat color the raster is cleared to.
const DefaultBackground = "#ffffff"

// Machine is the drawing state machine. It exclusively owns the persistent
// raster: strokes accumulate until Clear.
//
// While in a draw run each update strokes a quadratic curve from the last
// point (also the control point) to the midpoint between the last point and
// the new tip, so the line trails the finger by half a step.
type Machine struct {
	mu         sync.Mutex
	surface    canvas.Surface
	brush      BrushSource
	background string
	logger     *slog.Logger

	state     State
	lastPoint *canvas.Point
	segments  uint64
}

// NewMachine creates a machine painting on surface with brush settings from
// brush. The surface is cleared to the background immediately.
func NewMachine(surface canvas.Surface, brush BrushSource, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Machine{
		surface:    surface,
		brush:      brush,
		background: DefaultBackground,
		logger:     logger.With("component", "drawing"),
	}
	m.surface.Fill(m.background)
	return m
}

// Update feeds one mode + landmark tick through the machine.
func (m *Machine) Update(mode protocol.Mode, landmarks protocol.HandFrame) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cursor, ok := landmarks.Cursor()
	if !mode.IsDraw() || !ok {
		m.toIdle()
		return nil
	}

	w, h := m.surface.Size()
	tip := canvas.Denormalize(cursor, w, h)

	if m.lastPoint == nil {
		// A stroke needs two points; the first one only anchors the run.
		m.state = StateDrawing
		m.lastPoint = &tip
		return nil
	}

	last := *m.lastPoint
	b := m.brush.Brush()
	style := canvas.Style{Color: b.Color, Width: b.Width}
	if err := m.surface.Quad(last, last, last.Mid(tip), style); err != nil {
		return fmt.Errorf("draw segment: %w", err)
	}
	m.segments++
	m.lastPoint = &tip
	return nil
}

func (m *Machine) toIdle() {
	if m.state == StateDrawing {
		m.logger.Debug("stroke ended", "segments", m.segments)
	}
	m.state = StateIdle
	m.lastPoint = nil
}

// Clear discards every stroke by filling the raster with the background.
// The current draw run, if any, continues from its last point.
func (m *Machine) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.surface.Fill(m.background)
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LastPoint returns the anchor of the current draw run.
func (m *Machine) LastPoint() (canvas.Point, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastPoint == nil {
		return canvas.Point{}, false
	}
	return *m.lastPoint, true
}

// Segments returns how many curve segments have been drawn.
func (m *Machine) Segments() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.segments
}

// Snapshot returns a copy of the raster.
func (m *Machine) Snapshot() *image.RGBA {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.surface.Snapshot()
}

// EncodePNG writes the raster as PNG.
func (m *Machine) EncodePNG(w io.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.surface.EncodePNG(w)
}
