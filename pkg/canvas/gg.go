package canvas

import (
	"image"
	"io"

	"github.com/gogpu/gg"
)

// GGSurface is a software-rasterized Surface backed by a gg drawing context.
// Strokes use round caps and joins.
type GGSurface struct {
	dc *gg.Context
}

// NewSurface creates a transparent surface of the given size.
func NewSurface(width, height int) *GGSurface {
	dc := gg.NewContext(width, height)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	return &GGSurface{dc: dc}
}

func (s *GGSurface) Size() (int, int) {
	return s.dc.Width(), s.dc.Height()
}

func (s *GGSurface) Clear() {
	s.dc.Clear()
}

func (s *GGSurface) Fill(color string) {
	s.dc.ClearWithColor(gg.Hex(color))
}

func (s *GGSurface) Dot(center Point, radius float64, color string) error {
	s.dc.SetFillBrush(gg.SolidHex(color))
	s.dc.DrawCircle(center.X, center.Y, radius)
	return s.dc.Fill()
}

func (s *GGSurface) Line(from, to Point, style Style) error {
	s.applyStyle(style)
	s.dc.MoveTo(from.X, from.Y)
	s.dc.LineTo(to.X, to.Y)
	return s.dc.Stroke()
}

func (s *GGSurface) Quad(from, ctrl, to Point, style Style) error {
	s.applyStyle(style)
	s.dc.MoveTo(from.X, from.Y)
	s.dc.QuadraticTo(ctrl.X, ctrl.Y, to.X, to.Y)
	return s.dc.Stroke()
}

func (s *GGSurface) Snapshot() *image.RGBA {
	_ = s.dc.FlushGPU()
	img := s.dc.Image()
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, img.At(x, y))
		}
	}
	return out
}

func (s *GGSurface) EncodePNG(w io.Writer) error {
	_ = s.dc.FlushGPU()
	return s.dc.EncodePNG(w)
}

// Close releases the drawing context.
func (s *GGSurface) Close() error {
	return s.dc.Close()
}

func (s *GGSurface) applyStyle(style Style) {
	s.dc.SetStrokeBrush(gg.SolidHex(style.Color))
	s.dc.SetLineWidth(style.Width)
	s.dc.SetLineCap(gg.LineCapRound)
	s.dc.SetLineJoin(gg.LineJoinRound)
}
