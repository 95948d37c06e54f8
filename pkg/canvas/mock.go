package canvas

import (
	"image"
	"image/png"
	"io"
	"sync"
)

// OpKind identifies a recorded surface operation.
type OpKind string

const (
	OpClear OpKind = "clear"
	OpFill  OpKind = "fill"
	OpDot   OpKind = "dot"
	OpLine  OpKind = "line"
	OpQuad  OpKind = "quad"
)

// Op is one recorded call on a Recorder.
type Op struct {
	Kind   OpKind
	Points []Point
	Radius float64
	Color  string
	Width  float64
}

// Recorder is a Surface that records every call instead of rasterizing.
// Useful for testing consumers of Surface.
type Recorder struct {
	mu     sync.Mutex
	width  int
	height int
	ops    []Op
}

// NewRecorder creates a Recorder reporting the given size.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{width: width, height: height}
}

func (r *Recorder) record(op Op) {
	r.mu.Lock()
	r.ops = append(r.ops, op)
	r.mu.Unlock()
}

func (r *Recorder) Size() (int, int) { return r.width, r.height }

func (r *Recorder) Clear() { r.record(Op{Kind: OpClear}) }

func (r *Recorder) Fill(c string) { r.record(Op{Kind: OpFill, Color: c}) }

func (r *Recorder) Dot(center Point, radius float64, c string) error {
	r.record(Op{Kind: OpDot, Points: []Point{center}, Radius: radius, Color: c})
	return nil
}

func (r *Recorder) Line(from, to Point, style Style) error {
	r.record(Op{Kind: OpLine, Points: []Point{from, to}, Color: style.Color, Width: style.Width})
	return nil
}

func (r *Recorder) Quad(from, ctrl, to Point, style Style) error {
	r.record(Op{Kind: OpQuad, Points: []Point{from, ctrl, to}, Color: style.Color, Width: style.Width})
	return nil
}

// Snapshot returns a blank image; the Recorder keeps no pixels.
func (r *Recorder) Snapshot() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, r.width, r.height))
}

func (r *Recorder) EncodePNG(w io.Writer) error {
	return png.Encode(w, r.Snapshot())
}

// Ops returns a copy of all recorded operations.
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Op, len(r.ops))
	copy(out, r.ops)
	return out
}

// Count returns how many operations of kind were recorded.
func (r *Recorder) Count(kind OpKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, op := range r.ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Reset forgets all recorded operations.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.ops = nil
	r.mu.Unlock()
}
