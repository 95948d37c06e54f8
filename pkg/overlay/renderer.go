// Package overlay draws the per-frame hand skeleton.
package overlay

import (
	"image"
	"io"
	"sync"

	"github.com/teslashibe/go-aircanvas/pkg/canvas"
	"github.com/teslashibe/go-aircanvas/pkg/protocol"
)

// Config controls skeleton appearance.
type Config struct {
	PointRadius float64 `yaml:"point_radius" json:"point_radius"`
	PointColor  string  `yaml:"point_color" json:"point_color"`
	LineWidth   float64 `yaml:"line_width" json:"line_width"`
	LineColor   string  `yaml:"line_color" json:"line_color"`
}

// DefaultConfig returns the green skeleton style.
func DefaultConfig() Config {
	return Config{
		PointRadius: 4,
		PointColor:  "#00ff00",
		LineWidth:   3,
		LineColor:   "#00ff00cc",
	}
}

// Renderer redraws the skeleton overlay from the latest landmark set.
// It owns its surface and keeps nothing between calls: every Render is a
// full redraw.
//
// The skeleton is index-sequential: landmark i-1 connects to landmark i.
type Renderer struct {
	cfg     Config
	mu      sync.Mutex
	surface canvas.Surface
}

// NewRenderer creates a renderer drawing onto surface.
func NewRenderer(surface canvas.Surface, cfg Config) *Renderer {
	return &Renderer{cfg: cfg, surface: surface}
}

// Render clears the overlay and, when landmarks is non-empty, draws a point
// per landmark and a segment from each landmark to the one after it.
func (r *Renderer) Render(landmarks protocol.HandFrame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.surface.Clear()
	if len(landmarks) == 0 {
		return nil
	}

	w, h := r.surface.Size()
	line := canvas.Style{Color: r.cfg.LineColor, Width: r.cfg.LineWidth}

	var prev canvas.Point
	for i, l := range landmarks {
		p := canvas.Denormalize(l, w, h)
		if err := r.surface.Dot(p, r.cfg.PointRadius, r.cfg.PointColor); err != nil {
			return err
		}
		if i > 0 {
			if err := r.surface.Line(prev, p, line); err != nil {
				return err
			}
		}
		prev = p
	}
	return nil
}

// Snapshot returns a copy of the overlay pixels.
func (r *Renderer) Snapshot() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.surface.Snapshot()
}

// EncodePNG writes the overlay as PNG.
func (r *Renderer) EncodePNG(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.surface.EncodePNG(w)
}
