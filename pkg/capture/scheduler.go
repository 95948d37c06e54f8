package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/image/draw"

	"github.com/teslashibe/go-aircanvas/pkg/camera"
	"github.com/teslashibe/go-aircanvas/pkg/protocol"
)

// Sender accepts encoded frames. It returns false when the frame was
// dropped (for example because the connection is not open).
type Sender interface {
	SendBinary(payload []byte) bool
	SendText(payload []byte) bool
}

// Stats contains capture loop counters.
type Stats struct {
	Ticks      int64 `json:"ticks"`
	Captured   int64 `json:"captured"`
	Sent       int64 `json:"sent"`
	Dropped    int64 `json:"dropped"`
	ReadErrors int64 `json:"read_errors"`
}

// Scheduler drives camera capture at a bounded rate.
type Scheduler struct {
	cfg       Config
	source    camera.Source
	sender    Sender
	logger    *slog.Logger
	newTicker TickerFactory

	surface *image.RGBA
	jpegBuf bytes.Buffer

	// OnError is called once when the camera cannot be opened.
	OnError func(err error)

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
	stopped bool

	ticks      atomic.Int64
	captured   atomic.Int64
	sent       atomic.Int64
	dropped    atomic.Int64
	readErrors atomic.Int64
}

// NewScheduler creates a scheduler. The source is opened by Start and
// closed by Stop.
func NewScheduler(cfg Config, source camera.Source, sender Sender, logger *slog.Logger) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, errors.New("capture: nil camera source")
	}
	if sender == nil {
		return nil, errors.New("capture: nil sender")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:       cfg,
		source:    source,
		sender:    sender,
		logger:    logger.With("component", "capture"),
		newTicker: NewTimeTicker,
		surface:   image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height)),
	}, nil
}

// SetTickerFactory replaces the tick source. Must be called before Start.
func (s *Scheduler) SetTickerFactory(f TickerFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newTicker = f
}

// Start opens the camera and begins the capture loop. A camera that cannot
// be opened is reported through OnError and returned; it is not retried.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	if err := s.source.Open(ctx); err != nil {
		s.logger.Error("camera access failed", "backend", s.source.Name(), "error", err)
		if s.OnError != nil {
			s.OnError(err)
		}
		return fmt.Errorf("open camera: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		cancel()
		return ErrStopped
	}
	s.cancel = cancel
	s.done = done
	ticker := s.newTicker(s.cfg.RefreshInterval())
	s.mu.Unlock()

	s.logger.Info("capture started",
		"backend", s.source.Name(),
		"target_fps", s.cfg.TargetFPS,
		"refresh_hz", s.cfg.RefreshHz,
		"encoding", s.cfg.Encoding,
	)

	go s.loop(loopCtx, ticker, done)
	return nil
}

func (s *Scheduler) loop(ctx context.Context, ticker Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	gate := NewRateGate(s.cfg.Interval())
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C():
			s.ticks.Add(1)
			if !gate.Allow(now) {
				continue
			}
			s.captureFrame()
		}
	}
}

// captureFrame reads one frame, rasterizes it onto the surface and sends it.
func (s *Scheduler) captureFrame() {
	img, err := s.source.Read()
	if err != nil {
		s.readErrors.Add(1)
		if !errors.Is(err, camera.ErrClosed) {
			s.logger.Debug("frame read failed", "error", err)
		}
		return
	}
	s.captured.Add(1)

	if img.Bounds() == s.surface.Bounds() {
		draw.Draw(s.surface, s.surface.Bounds(), img, img.Bounds().Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(s.surface, s.surface.Bounds(), img, img.Bounds(), draw.Src, nil)
	}

	var ok bool
	switch s.cfg.Encoding {
	case protocol.EncodingJSONJPEG:
		s.jpegBuf.Reset()
		if err := jpeg.Encode(&s.jpegBuf, s.surface, &jpeg.Options{Quality: s.cfg.Quality}); err != nil {
			s.logger.Warn("jpeg encode failed", "error", err)
			return
		}
		payload, err := protocol.EncodeJSONFrame(s.jpegBuf.Bytes())
		if err != nil {
			s.logger.Warn("frame encode failed", "error", err)
			return
		}
		ok = s.sender.SendText(payload)
	default:
		ok = s.sender.SendBinary(protocol.EncodeRGBA(s.surface))
	}

	if ok {
		s.sent.Add(1)
	} else {
		s.dropped.Add(1)
	}
}

// Stop ends the loop, waits for it to exit and closes the camera.
// No frame is sent after Stop returns. Safe to call multiple times.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	err := s.source.Close()
	s.logger.Info("capture stopped", "sent", s.sent.Load(), "dropped", s.dropped.Load())
	return err
}

// Running reports whether the capture loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil && !s.stopped
}

// Stats returns capture counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Ticks:      s.ticks.Load(),
		Captured:   s.captured.Load(),
		Sent:       s.sent.Load(),
		Dropped:    s.dropped.Load(),
		ReadErrors: s.readErrors.Load(),
	}
}
