package capture

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-aircanvas/pkg/camera"
	"github.com/teslashibe/go-aircanvas/pkg/protocol"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.once.Do(func() { close(f.stopped) }) }

type recordingSender struct {
	mu     sync.Mutex
	open   bool
	binary [][]byte
	text   [][]byte
}

func (r *recordingSender) SendBinary(p []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.open {
		return false
	}
	r.binary = append(r.binary, p)
	return true
}

func (r *recordingSender) SendText(p []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.open {
		return false
	}
	r.text = append(r.text, p)
	return true
}

func (r *recordingSender) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.binary), len(r.text)
}

func mockCamera(w, h int) *camera.MockSource {
	cfg := camera.DefaultConfig()
	cfg.Backend = camera.BackendMock
	cfg.Width, cfg.Height = w, h
	return camera.NewMockSource(cfg, nil)
}

func newTestScheduler(t *testing.T, cfg Config, src camera.Source, sender Sender) (*Scheduler, *fakeTicker) {
	t.Helper()
	s, err := NewScheduler(cfg, src, sender, nil)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	ft := newFakeTicker()
	s.SetTickerFactory(func(time.Duration) Ticker { return ft })
	return s, ft
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("surface = %dx%d, want 640x480", cfg.Width, cfg.Height)
	}
	if cfg.Encoding != protocol.EncodingRGBA {
		t.Errorf("encoding = %q, want rgba", cfg.Encoding)
	}
	if got := cfg.Interval(); got < 33*time.Millisecond || got > 34*time.Millisecond {
		t.Errorf("interval = %v, want ~33.3ms", got)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero fps", func(c *Config) { c.TargetFPS = 0 }},
		{"zero refresh", func(c *Config) { c.RefreshHz = 0 }},
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"bad encoding", func(c *Config) { c.Encoding = "png" }},
		{"bad quality", func(c *Config) { c.Quality = 101 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRateGateFirstTickSetsBaseline(t *testing.T) {
	g := NewRateGate(100 * time.Millisecond)
	t0 := time.Unix(0, 0)
	if g.Allow(t0) {
		t.Error("first tick should only set the baseline")
	}
	if g.Allow(t0.Add(99 * time.Millisecond)) {
		t.Error("tick before interval accepted")
	}
	if !g.Allow(t0.Add(100 * time.Millisecond)) {
		t.Error("tick at interval rejected")
	}
	if g.Allow(t0.Add(150 * time.Millisecond)) {
		t.Error("interval should be measured from the last accepted tick")
	}
}

func TestRateGateBound(t *testing.T) {
	interval := time.Second / 30
	periods := []time.Duration{time.Millisecond, 7 * time.Millisecond, time.Second / 60, time.Second / 144, 50 * time.Millisecond}

	for _, period := range periods {
		g := NewRateGate(interval)
		start := time.Unix(100, 0)
		accepted := 0
		var elapsed time.Duration
		for now := start; now.Sub(start) <= 3*time.Second; now = now.Add(period) {
			if g.Allow(now) {
				accepted++
			}
			elapsed = now.Sub(start)
		}
		bound := int(elapsed / interval)
		if accepted > bound {
			t.Errorf("period %v: accepted %d frames in %v, bound %d", period, accepted, elapsed, bound)
		}
		if accepted == 0 {
			t.Errorf("period %v: no frames accepted", period)
		}
	}
}

func TestDefaultRefreshReachesTargetRate(t *testing.T) {
	cfg := DefaultConfig()
	g := NewRateGate(cfg.Interval())
	period := cfg.RefreshInterval()
	start := time.Unix(100, 0)

	accepted := 0
	var elapsed time.Duration
	for k := 0; k <= 1000; k++ {
		// Up to 0.3ms of timer jitter either way.
		jitter := time.Duration(k%7-3) * 100 * time.Microsecond
		now := start.Add(time.Duration(k)*period + jitter)
		if g.Allow(now) {
			accepted++
		}
		elapsed = now.Sub(start)
	}

	if bound := int(elapsed / cfg.Interval()); accepted > bound {
		t.Errorf("accepted %d frames in %v, bound %d", accepted, elapsed, bound)
	}
	// 2s of ticks at 500 Hz: at least 29 FPS.
	if accepted < 58 {
		t.Errorf("accepted %d frames in %v, want at least 58", accepted, elapsed)
	}
}

func TestSchedulerSendsRGBAFrames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 64, 48
	sender := &recordingSender{open: true}
	src := mockCamera(128, 96)
	s, ft := newTestScheduler(t, cfg, src, sender)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	start := time.Unix(0, 0)
	step := time.Second / 60
	for i := 0; i < 60; i++ {
		ft.ch <- start.Add(time.Duration(i) * step)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	bin, text := sender.counts()
	if text != 0 {
		t.Errorf("text frames = %d, want 0", text)
	}
	elapsed := 59 * step
	if bound := int(elapsed / cfg.Interval()); bin > bound {
		t.Errorf("sent %d frames in %v, bound %d", bin, elapsed, bound)
	}
	if bin < 15 {
		t.Errorf("sent %d frames, want at least 15", bin)
	}
	for i, p := range sender.binary {
		if len(p) != protocol.FrameSize(64, 48) {
			t.Fatalf("frame %d is %d bytes, want %d", i, len(p), protocol.FrameSize(64, 48))
		}
	}

	stats := s.Stats()
	if stats.Ticks != 60 {
		t.Errorf("ticks = %d, want 60", stats.Ticks)
	}
	if stats.Sent != int64(bin) {
		t.Errorf("stats.Sent = %d, want %d", stats.Sent, bin)
	}
	if !src.Closed() {
		t.Error("camera not closed after Stop")
	}
}

func TestSchedulerJSONEncoding(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 32, 24
	cfg.Encoding = protocol.EncodingJSONJPEG
	sender := &recordingSender{open: true}
	s, ft := newTestScheduler(t, cfg, mockCamera(32, 24), sender)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	start := time.Unix(0, 0)
	ft.ch <- start
	ft.ch <- start.Add(cfg.Interval())
	s.Stop()

	_, text := sender.counts()
	if text != 1 {
		t.Fatalf("text frames = %d, want 1", text)
	}
	blob, err := protocol.DecodeJSONFrame(sender.text[0])
	if err != nil {
		t.Fatalf("DecodeJSONFrame: %v", err)
	}
	if len(blob) < 2 || blob[0] != 0xFF || blob[1] != 0xD8 {
		t.Error("payload is not a JPEG")
	}
}

func TestSchedulerDropsWhenNotOpen(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 16, 16
	sender := &recordingSender{open: false}
	s, ft := newTestScheduler(t, cfg, mockCamera(16, 16), sender)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	start := time.Unix(0, 0)
	for i := 0; i < 4; i++ {
		ft.ch <- start.Add(time.Duration(i) * cfg.Interval())
	}
	s.Stop()

	stats := s.Stats()
	if stats.Sent != 0 {
		t.Errorf("sent = %d, want 0", stats.Sent)
	}
	if stats.Dropped != 3 {
		t.Errorf("dropped = %d, want 3", stats.Dropped)
	}
}

func TestSchedulerCameraDenied(t *testing.T) {
	src := mockCamera(16, 16)
	src.OpenErr = errors.New("Permission denied")
	s, _ := newTestScheduler(t, DefaultConfig(), src, &recordingSender{open: true})

	var reported error
	s.OnError = func(err error) { reported = err }

	err := s.Start(context.Background())
	if !errors.Is(err, camera.ErrPermissionDenied) {
		t.Fatalf("Start error = %v, want ErrPermissionDenied", err)
	}
	if !errors.Is(reported, camera.ErrPermissionDenied) {
		t.Errorf("OnError got %v", reported)
	}
	if s.Running() {
		t.Error("scheduler running after camera failure")
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}
}

func TestSchedulerStopIdempotent(t *testing.T) {
	src := mockCamera(16, 16)
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 16, 16
	s, ft := newTestScheduler(t, cfg, src, &recordingSender{open: true})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !s.Running() {
		t.Error("not running after Start")
	}
	for i := 0; i < 3; i++ {
		if err := s.Stop(); err != nil {
			t.Fatalf("Stop #%d: %v", i, err)
		}
	}
	select {
	case <-ft.stopped:
	default:
		t.Error("ticker not stopped")
	}
	if s.Running() {
		t.Error("running after Stop")
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Start after Stop = %v, want ErrStopped", err)
	}
	if src.CloseCalls() != 1 {
		t.Errorf("camera closed %d times, want 1", src.CloseCalls())
	}
}

func TestSchedulerContextCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 16, 16
	s, ft := newTestScheduler(t, cfg, mockCamera(16, 16), &recordingSender{open: true})

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
	select {
	case <-ft.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit on context cancel")
	}
	s.Stop()
}

func TestSchedulerScalesToSurface(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 8, 8
	sender := &recordingSender{open: true}
	s, ft := newTestScheduler(t, cfg, mockCamera(80, 80), sender)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ft.ch <- time.Unix(0, 0)
	ft.ch <- time.Unix(1, 0)
	s.Stop()

	if len(sender.binary) != 1 {
		t.Fatalf("frames = %d, want 1", len(sender.binary))
	}
	img, err := protocol.DecodeRGBA(sender.binary[0], 8, 8)
	if err != nil {
		t.Fatalf("DecodeRGBA: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 8, 8) {
		t.Errorf("bounds = %v", img.Bounds())
	}
	// The mock gradient has full alpha everywhere.
	if a := img.RGBAAt(4, 4).A; a != 255 {
		t.Errorf("alpha = %d, want 255", a)
	}
}
