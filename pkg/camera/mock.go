package camera

import (
	"context"
	"image"
	"image/color"
	"log/slog"
	"sync"
	"sync/atomic"
)

// MockSource produces synthetic frames for testing and demos.
// Each frame is a gradient with a bright square that moves one step per read.
type MockSource struct {
	cfg    Config
	logger *slog.Logger

	// OpenErr, when set, is returned (wrapped in *Error) by Open.
	OpenErr error

	mu     sync.Mutex
	opened bool
	closed bool

	frames     atomic.Int64
	closeCalls atomic.Int64
}

// NewMockSource creates a mock source.
func NewMockSource(cfg Config, logger *slog.Logger) *MockSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &MockSource{cfg: cfg, logger: logger.With("component", "camera", "backend", "mock")}
}

// Open marks the source as acquired, or fails with OpenErr.
func (m *MockSource) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return &Error{Backend: m.Name(), Device: m.cfg.Device, Kind: ErrClosed}
	}
	if m.OpenErr != nil {
		return &Error{Backend: m.Name(), Device: m.cfg.Device, Kind: ClassifyOpenError(m.OpenErr), Cause: m.OpenErr}
	}
	m.opened = true
	m.logger.Debug("mock camera opened", "width", m.cfg.Width, "height", m.cfg.Height)
	return nil
}

// Read renders the next synthetic frame.
func (m *MockSource) Read() (image.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if !m.opened {
		return nil, ErrReadFailed
	}

	n := int(m.frames.Add(1))
	w, h := m.cfg.Width, m.cfg.Height
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 64, A: 255})
		}
	}

	size := h / 8
	if size < 1 {
		size = 1
	}
	ox := (n * 4) % max(w-size, 1)
	oy := h/2 - size/2
	for y := oy; y < oy+size && y < h; y++ {
		for x := ox; x < ox+size && x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	return img, nil
}

func (m *MockSource) Config() Config { return m.cfg }

func (m *MockSource) Name() string { return string(BackendMock) }

// Close releases the mock device. Safe to call multiple times.
func (m *MockSource) Close() error {
	m.closeCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.opened = false
	return nil
}

// Stats returns read statistics.
func (m *MockSource) Stats() SourceStats {
	return SourceStats{FramesRead: m.frames.Load()}
}

// Closed reports whether Close has been called.
func (m *MockSource) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// CloseCalls returns how many times Close was called.
func (m *MockSource) CloseCalls() int64 {
	return m.closeCalls.Load()
}
