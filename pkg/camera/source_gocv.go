//go:build gocv

package camera

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"
)

const gocvAvailable = true

// GoCVSource captures frames from a local camera through OpenCV.
type GoCVSource struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	cap    *gocv.VideoCapture
	frame  gocv.Mat
	closed bool

	framesRead atomic.Int64
	readErrors atomic.Int64
}

func newGoCVSource(cfg Config, logger *slog.Logger) (Source, error) {
	return &GoCVSource{
		cfg:    cfg,
		logger: logger.With("component", "camera", "backend", "gocv"),
		frame:  gocv.NewMat(),
	}, nil
}

// Open acquires the capture device and applies the requested format.
func (s *GoCVSource) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &Error{Backend: s.Name(), Device: s.cfg.Device, Kind: ErrClosed}
	}
	if s.cap != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(s.cfg.Device)
	if err != nil {
		return &Error{Backend: s.Name(), Device: s.cfg.Device, Kind: ClassifyOpenError(err), Cause: err}
	}
	if !vc.IsOpened() {
		vc.Close()
		return &Error{Backend: s.Name(), Device: s.cfg.Device, Kind: ErrNoDevice}
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(s.cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(s.cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(s.cfg.Framerate))
	s.cap = vc

	s.logger.Info("camera opened",
		"device", s.cfg.Device,
		"width", vc.Get(gocv.VideoCaptureFrameWidth),
		"height", vc.Get(gocv.VideoCaptureFrameHeight),
		"fps", vc.Get(gocv.VideoCaptureFPS),
	)
	return nil
}

// Read grabs the latest frame and converts it to an image.
func (s *GoCVSource) Read() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.cap == nil {
		return nil, ErrReadFailed
	}
	if ok := s.cap.Read(&s.frame); !ok || s.frame.Empty() {
		s.readErrors.Add(1)
		return nil, ErrReadFailed
	}
	if s.cfg.Mirror {
		gocv.Flip(s.frame, &s.frame, 1)
	}

	img, err := s.frame.ToImage()
	if err != nil {
		s.readErrors.Add(1)
		return nil, err
	}
	s.framesRead.Add(1)
	return img, nil
}

func (s *GoCVSource) Config() Config { return s.cfg }

func (s *GoCVSource) Name() string { return string(BackendGoCV) }

// Close releases the capture device. Safe to call multiple times.
func (s *GoCVSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.cap != nil {
		err = s.cap.Close()
		s.cap = nil
	}
	s.frame.Close()
	s.logger.Info("camera closed", "frames_read", s.framesRead.Load())
	return err
}

// Stats returns read statistics.
func (s *GoCVSource) Stats() SourceStats {
	return SourceStats{
		FramesRead: s.framesRead.Load(),
		ReadErrors: s.readErrors.Load(),
	}
}
