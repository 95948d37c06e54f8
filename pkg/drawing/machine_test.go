package drawing

import (
	"testing"

	"github.com/teslashibe/go-aircanvas/pkg/canvas"
	"github.com/teslashibe/go-aircanvas/pkg/protocol"
)

func newTestMachine(brush BrushSource) (*Machine, *canvas.Recorder) {
	rec := canvas.NewRecorder(640, 480)
	return NewMachine(rec, brush, nil), rec
}

func TestMachine_FillsBackgroundOnCreate(t *testing.T) {
	_, rec := newTestMachine(StaticBrush(DefaultBrush()))
	ops := rec.Ops()
	if len(ops) != 1 || ops[0].Kind != canvas.OpFill || ops[0].Color != DefaultBackground {
		t.Errorf("expected initial background fill, got %+v", ops)
	}
}

func TestMachine_FirstPointDrawsNothing(t *testing.T) {
	m, rec := newTestMachine(StaticBrush(DefaultBrush()))
	rec.Reset()

	if err := m.Update(protocol.ModeDraw, protocol.HandAt(0.5, 0.5)); err != nil {
		t.Fatal(err)
	}
	if m.State() != StateDrawing {
		t.Errorf("state = %v, want drawing", m.State())
	}
	if rec.Count(canvas.OpQuad) != 0 {
		t.Error("first point must not draw a segment")
	}
	lp, ok := m.LastPoint()
	if !ok || lp != (canvas.Point{X: 320, Y: 240}) {
		t.Errorf("lastPoint = %+v, %v", lp, ok)
	}
}

func TestMachine_DrawIdleDrawSequence(t *testing.T) {
	m, rec := newTestMachine(StaticBrush(DefaultBrush()))
	rec.Reset()

	p1 := protocol.HandAt(0.25, 0.25)
	p2 := protocol.HandAt(0.75, 0.25)
	p4 := protocol.HandAt(0.5, 0.75)

	ticks := []struct {
		mode protocol.Mode
		hand protocol.HandFrame
	}{
		{protocol.ModeDraw, p1},
		{protocol.ModeDraw, p2},
		{protocol.ModeIdle, nil},
		{protocol.ModeDraw, p4},
	}
	for _, tk := range ticks {
		if err := m.Update(tk.mode, tk.hand); err != nil {
			t.Fatal(err)
		}
	}

	var quads []canvas.Op
	for _, op := range rec.Ops() {
		if op.Kind == canvas.OpQuad {
			quads = append(quads, op)
		}
	}
	if len(quads) != 1 {
		t.Fatalf("quads = %d, want exactly 1", len(quads))
	}

	from := canvas.Point{X: 160, Y: 120}
	to := canvas.Point{X: 480, Y: 120}
	q := quads[0]
	if q.Points[0] != from || q.Points[1] != from {
		t.Errorf("segment should start and be controlled at tick-1 point, got %+v", q.Points)
	}
	if q.Points[2] != from.Mid(to) {
		t.Errorf("segment should end at midpoint %+v, got %+v", from.Mid(to), q.Points[2])
	}

	// Tick 4 starts a fresh run anchored at its own tip.
	lp, ok := m.LastPoint()
	if !ok || lp != (canvas.Point{X: 320, Y: 360}) {
		t.Errorf("lastPoint after tick 4 = %+v, %v", lp, ok)
	}
	if m.Segments() != 1 {
		t.Errorf("Segments = %d", m.Segments())
	}
}

func TestMachine_HandLostEndsRun(t *testing.T) {
	m, rec := newTestMachine(StaticBrush(DefaultBrush()))
	rec.Reset()

	_ = m.Update(protocol.ModeDraw, protocol.HandAt(0.1, 0.1))
	_ = m.Update(protocol.ModeDraw, nil)
	if m.State() != StateIdle {
		t.Errorf("state = %v, want idle after hand lost", m.State())
	}
	if _, ok := m.LastPoint(); ok {
		t.Error("lastPoint should be cleared when hand is lost")
	}
	_ = m.Update(protocol.ModeDraw, protocol.HandAt(0.9, 0.9))
	if rec.Count(canvas.OpQuad) != 0 {
		t.Error("no segment may bridge a lost hand")
	}
}

func TestMachine_UnknownModeIsIdle(t *testing.T) {
	m, rec := newTestMachine(StaticBrush(DefaultBrush()))
	rec.Reset()

	_ = m.Update(protocol.ModeDraw, protocol.HandAt(0.1, 0.1))
	_ = m.Update(protocol.Mode("erase"), protocol.HandAt(0.2, 0.2))
	_ = m.Update(protocol.ModeDraw, protocol.HandAt(0.3, 0.3))
	if rec.Count(canvas.OpQuad) != 0 {
		t.Errorf("unrecognized mode must break the run, got %d quads", rec.Count(canvas.OpQuad))
	}
}

func TestMachine_BrushReadPerSegment(t *testing.T) {
	store := NewBrushStore(Brush{Color: "#ff0000", Width: 3})
	m, rec := newTestMachine(store)
	rec.Reset()

	_ = m.Update(protocol.ModeDraw, protocol.HandAt(0.1, 0.5))
	_ = m.Update(protocol.ModeDraw, protocol.HandAt(0.2, 0.5))
	if err := store.Set(Brush{Color: "#0000ff", Width: 12}); err != nil {
		t.Fatal(err)
	}
	_ = m.Update(protocol.ModeDraw, protocol.HandAt(0.3, 0.5))

	var quads []canvas.Op
	for _, op := range rec.Ops() {
		if op.Kind == canvas.OpQuad {
			quads = append(quads, op)
		}
	}
	if len(quads) != 2 {
		t.Fatalf("quads = %d, want 2", len(quads))
	}
	if quads[0].Color != "#ff0000" || quads[0].Width != 3 {
		t.Errorf("first segment style = %s/%v", quads[0].Color, quads[0].Width)
	}
	if quads[1].Color != "#0000ff" || quads[1].Width != 12 {
		t.Errorf("second segment style = %s/%v", quads[1].Color, quads[1].Width)
	}
}

func TestMachine_ShortHandUsesLastLandmark(t *testing.T) {
	m, _ := newTestMachine(StaticBrush(DefaultBrush()))
	_ = m.Update(protocol.ModeDraw, protocol.HandFrame{{X: 0.1, Y: 0.1}, {X: 0.5, Y: 0.5}})
	lp, ok := m.LastPoint()
	if !ok || lp != (canvas.Point{X: 320, Y: 240}) {
		t.Errorf("lastPoint = %+v, %v", lp, ok)
	}
}

func TestMachine_ClearRestoresBackground(t *testing.T) {
	s := canvas.NewSurface(100, 100)
	defer s.Close()
	m := NewMachine(s, StaticBrush(Brush{Color: "#000000", Width: 10}), nil)

	for _, x := range []float64{0.1, 0.3, 0.5, 0.7, 0.9} {
		_ = m.Update(protocol.ModeDraw, protocol.HandFrame{{X: x, Y: 0.5}})
	}
	if c := m.Snapshot().RGBAAt(30, 50); c.R > 128 {
		t.Fatalf("stroke should have painted (30,50), got %+v", c)
	}

	m.Clear()
	img := m.Snapshot()
	for _, pt := range [][2]int{{30, 50}, {50, 50}, {0, 0}, {99, 99}} {
		c := img.RGBAAt(pt[0], pt[1])
		if c.R != 255 || c.G != 255 || c.B != 255 || c.A != 255 {
			t.Errorf("pixel %v = %+v after clear, want white", pt, c)
		}
	}
}

func TestState_String(t *testing.T) {
	if StateIdle.String() != "idle" || StateDrawing.String() != "drawing" {
		t.Error("unexpected state names")
	}
}
