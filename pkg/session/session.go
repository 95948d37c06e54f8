// Package session wires capture, transport, overlay and drawing into one
// lifecycle. Inbound packets, connection state changes and clear requests
// are applied in order by a single event loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-aircanvas/pkg/capture"
	"github.com/teslashibe/go-aircanvas/pkg/drawing"
	"github.com/teslashibe/go-aircanvas/pkg/overlay"
	"github.com/teslashibe/go-aircanvas/pkg/protocol"
	"github.com/teslashibe/go-aircanvas/pkg/transport"
)

// Deps are the components a session composes.
type Deps struct {
	Capture *capture.Scheduler
	Conn    transport.Conn
	Overlay *overlay.Renderer
	Drawing *drawing.Machine
	Logger  *slog.Logger
}

func (d *Deps) validate() error {
	switch {
	case d.Capture == nil:
		return errors.New("session: capture scheduler is required")
	case d.Conn == nil:
		return errors.New("session: transport is required")
	case d.Overlay == nil:
		return errors.New("session: overlay renderer is required")
	case d.Drawing == nil:
		return errors.New("session: drawing machine is required")
	}
	return nil
}

type eventKind int

const (
	evPacket eventKind = iota
	evState
	evCameraError
	evClear
)

type event struct {
	kind  eventKind
	data  []byte
	state transport.State
	err   error
	ack   chan struct{}
}

// Session owns the client pipeline.
type Session struct {
	capture *capture.Scheduler
	conn    transport.Conn
	overlay *overlay.Renderer
	drawing *drawing.Machine
	logger  *slog.Logger

	events chan event
	stopCh chan struct{}
	done   chan struct{}

	lifeMu  sync.Mutex
	started bool
	stopped bool

	mu       sync.RWMutex
	mode     protocol.Mode
	shape    string
	hand     bool
	connSt   transport.State
	connErr  bool
	camErr   error
	onStatus func(Status)

	packets   atomic.Int64
	malformed atomic.Int64
}

// New creates a session from its components.
func New(deps Deps) (*Session, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		capture: deps.Capture,
		conn:    deps.Conn,
		overlay: deps.Overlay,
		drawing: deps.Drawing,
		logger:  logger.With("component", "session"),
		events:  make(chan event, 64),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
		connSt:  transport.StateClosed,
	}, nil
}

// OnStatus sets a callback invoked from the event loop after every change.
func (s *Session) OnStatus(fn func(Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStatus = fn
}

// Start connects the transport and starts capture. A camera failure is
// returned and recorded in the status; the session keeps running so
// status stays readable, but capture is not retried.
func (s *Session) Start(ctx context.Context) error {
	s.lifeMu.Lock()
	if s.stopped {
		s.lifeMu.Unlock()
		return ErrStopped
	}
	if s.started {
		s.lifeMu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.lifeMu.Unlock()

	go s.loop()

	s.conn.OnMessage(func(data []byte) {
		s.post(event{kind: evPacket, data: data})
	})
	s.conn.OnStateChange(func(st transport.State) {
		s.post(event{kind: evState, state: st})
	})
	if err := s.conn.Connect(); err != nil {
		return fmt.Errorf("connect transport: %w", err)
	}

	s.capture.OnError = func(err error) {
		s.post(event{kind: evCameraError, err: err})
	}
	if err := s.capture.Start(ctx); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}

	s.logger.Info("session started")
	return nil
}

// post hands an event to the loop. It returns false once the session is
// stopped.
func (s *Session) post(ev event) bool {
	select {
	case <-s.stopCh:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	case <-s.stopCh:
		return false
	}
}

func (s *Session) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.stopCh:
			return
		case ev := <-s.events:
			s.handle(ev)
		}
	}
}

func (s *Session) handle(ev event) {
	switch ev.kind {
	case evPacket:
		s.handlePacket(ev.data)
	case evState:
		s.handleState(ev.state)
	case evCameraError:
		s.mu.Lock()
		s.camErr = ev.err
		s.mu.Unlock()
	case evClear:
		s.drawing.Clear()
		close(ev.ack)
	}
	s.publish()
}

func (s *Session) handlePacket(data []byte) {
	in, err := protocol.ParseInbound(data)
	if err != nil {
		s.malformed.Add(1)
		s.logger.Debug("dropping malformed packet", "error", err, "size", len(data))
		return
	}
	s.packets.Add(1)

	s.mu.Lock()
	if in.Mode != "" {
		s.mode = in.Mode
		s.connErr = false
	}
	if in.Shape != "" {
		s.shape = in.Shape
	}
	s.hand = in.HasHand()
	s.mu.Unlock()

	if err := s.overlay.Render(in.HandData); err != nil {
		s.logger.Warn("overlay render failed", "error", err)
	}
	if err := s.drawing.Update(in.Mode, in.HandData); err != nil {
		s.logger.Warn("stroke draw failed", "error", err)
	}
}

func (s *Session) handleState(st transport.State) {
	s.lifeMu.Lock()
	stopping := s.stopped
	s.lifeMu.Unlock()

	s.mu.Lock()
	prev := s.connSt
	s.connSt = st
	lost := st == transport.StateClosed && prev != transport.StateClosed && !stopping
	if lost {
		s.connErr = true
	}
	s.mu.Unlock()

	if lost {
		s.logger.Warn("backend connection lost")
	} else {
		s.logger.Debug("backend connection", "state", st)
	}
}

func (s *Session) publish() {
	s.mu.RLock()
	fn := s.onStatus
	s.mu.RUnlock()
	if fn != nil {
		fn(s.Status())
	}
}

// Clear wipes the drawing raster. While the session runs, the clear is
// ordered with inbound packets.
func (s *Session) Clear() error {
	s.lifeMu.Lock()
	running := s.started && !s.stopped
	stopped := s.stopped
	s.lifeMu.Unlock()

	if stopped {
		return ErrStopped
	}
	if !running {
		s.drawing.Clear()
		return nil
	}

	ack := make(chan struct{})
	if !s.post(event{kind: evClear, ack: ack}) {
		return ErrStopped
	}
	select {
	case <-ack:
		return nil
	case <-s.stopCh:
		return ErrStopped
	}
}

// Status returns a snapshot of the session state.
func (s *Session) Status() Status {
	s.mu.RLock()
	mode, shape, hand := s.mode, s.shape, s.hand
	connSt, connErr, camErr := s.connSt, s.connErr, s.camErr
	s.mu.RUnlock()

	st := Status{
		Connection:  connSt.String(),
		Mode:        string(mode),
		ModeText:    modeText(mode.Label(), connErr, camErr),
		Shape:       shape,
		Drawing:     s.drawing.State().String(),
		HandVisible: hand,
		Segments:    s.drawing.Segments(),
		Packets:     s.packets.Load(),
		Malformed:   s.malformed.Load(),
	}
	if camErr != nil {
		st.CameraError = camErr.Error()
	}
	cs := s.capture.Stats()
	st.FramesSent = cs.Sent
	st.Dropped = cs.Dropped
	return st
}

// CanvasPNG writes the drawing raster as PNG.
func (s *Session) CanvasPNG(w io.Writer) error {
	return s.drawing.EncodePNG(w)
}

// OverlayPNG writes the skeleton overlay as PNG.
func (s *Session) OverlayPNG(w io.Writer) error {
	return s.overlay.EncodePNG(w)
}

// Stop tears the session down: capture loop and camera first, then the
// transport and its reconnect timer, then the event loop. Safe to call
// multiple times.
func (s *Session) Stop() error {
	s.lifeMu.Lock()
	if s.stopped {
		s.lifeMu.Unlock()
		return nil
	}
	s.stopped = true
	started := s.started
	s.lifeMu.Unlock()

	var errs []error
	if err := s.capture.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop capture: %w", err))
	}
	if err := s.conn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close transport: %w", err))
	}
	close(s.stopCh)
	if started {
		<-s.done
	}

	s.logger.Info("session stopped",
		"packets", s.packets.Load(),
		"malformed", s.malformed.Load(),
		"segments", s.drawing.Segments(),
	)
	return errors.Join(errs...)
}
