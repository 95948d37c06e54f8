// Package canvas provides the raster surfaces the overlay renderer and the
// drawing state machine paint on.
package canvas

import (
	"image"
	"io"

	"github.com/teslashibe/go-aircanvas/pkg/protocol"
)

// Point is a position in surface pixels.
type Point struct {
	X, Y float64
}

// Mid returns the midpoint between p and q.
func (p Point) Mid(q Point) Point {
	return Point{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
}

// Denormalize maps a normalized landmark onto a surface of the given size.
// Each consumer denormalizes against its own surface, never the capture size.
func Denormalize(l protocol.Landmark, width, height int) Point {
	return Point{X: l.X * float64(width), Y: l.Y * float64(height)}
}

// Style describes how a stroke is painted.
type Style struct {
	Color string  // hex, e.g. "#00ff00"
	Width float64 // pixels
}

// Surface is a 2D raster target.
type Surface interface {
	// Size returns the surface dimensions in pixels.
	Size() (width, height int)

	// Clear resets every pixel to transparent.
	Clear()

	// Fill resets every pixel to a flat color.
	Fill(color string)

	// Dot paints a filled circle.
	Dot(center Point, radius float64, color string) error

	// Line strokes a straight segment.
	Line(from, to Point, style Style) error

	// Quad strokes a quadratic curve from -> ctrl -> to.
	Quad(from, ctrl, to Point, style Style) error

	// Snapshot returns a copy of the current pixels.
	Snapshot() *image.RGBA

	// EncodePNG writes the current pixels as PNG.
	EncodePNG(w io.Writer) error
}
