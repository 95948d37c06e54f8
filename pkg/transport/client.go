package transport

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is a self-healing WebSocket client. A single supervisor goroutine
// owns the connection lifecycle and the reconnect timer, so at most one
// reconnect is ever pending.
type Client struct {
	cfg    Config
	logger *slog.Logger
	dialer websocket.Dialer
	id     string

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu            sync.Mutex
	state         State
	ws            *websocket.Conn
	started       bool
	closed        bool
	onMessage     func(data []byte)
	onStateChange func(State)

	// wsMu serializes writes on the current connection.
	wsMu sync.Mutex

	connects   atomic.Int64
	reconnects atomic.Int64
	sent       atomic.Int64
	dropped    atomic.Int64
	received   atomic.Int64
}

// NewClient creates a client. Nothing is dialed until Connect.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		cfg:    cfg,
		logger: logger.With("component", "transport", "conn_id", id),
		dialer: websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout},
		id:     id,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		state:  StateClosed,
	}, nil
}

// ID returns the client's connection id.
func (c *Client) ID() string { return c.id }

// URL returns the endpoint.
func (c *Client) URL() string { return c.cfg.URL }

// OnMessage sets the inbound message handler. Messages are delivered in
// arrival order from a single goroutine.
func (c *Client) OnMessage(fn func(data []byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = fn
}

// OnStateChange sets the state transition handler.
func (c *Client) OnStateChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStateChange = fn
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect starts the connection supervisor. The first attempt is made
// immediately. Calling Connect again is a no-op.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	go c.supervise()
	return nil
}

func (c *Client) supervise() {
	defer close(c.done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-timer.C:
		}

		c.setState(StateConnecting)
		if c.runConnection() {
			c.connects.Add(1)
		}
		if c.ctx.Err() != nil {
			return
		}

		c.setState(StateClosed)
		c.reconnects.Add(1)
		c.logger.Info("connection closed, reconnecting", "delay", c.cfg.ReconnectDelay)
		timer.Reset(c.cfg.ReconnectDelay)
	}
}

// runConnection dials and serves one connection until it ends. It reports
// whether the connection was established.
func (c *Client) runConnection() bool {
	conn, _, err := c.dialer.DialContext(c.ctx, c.cfg.URL, nil)
	if err != nil {
		if c.ctx.Err() == nil {
			c.logger.Warn("dial failed", "url", c.cfg.URL, "error", err)
		}
		return false
	}
	if c.cfg.ReadLimit > 0 {
		conn.SetReadLimit(c.cfg.ReadLimit)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return false
	}
	c.ws = conn
	c.mu.Unlock()

	c.setState(StateOpen)
	c.logger.Info("connected", "url", c.cfg.URL)

	readDone := make(chan struct{})
	if c.cfg.PingPeriod > 0 {
		go c.keepAlive(conn, readDone)
	}
	c.readLoop(conn)
	close(readDone)

	c.mu.Lock()
	if c.ws == conn {
		c.ws = nil
	}
	c.mu.Unlock()
	conn.Close()
	return true
}

func (c *Client) readLoop(conn *websocket.Conn) {
	if c.cfg.PingPeriod > 0 {
		wait := 2 * c.cfg.PingPeriod
		conn.SetReadDeadline(time.Now().Add(wait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wait))
		})
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("read failed", "error", err)
			}
			return
		}
		if c.cfg.PingPeriod > 0 {
			conn.SetReadDeadline(time.Now().Add(2 * c.cfg.PingPeriod))
		}
		c.received.Add(1)

		c.mu.Lock()
		fn := c.onMessage
		c.mu.Unlock()
		if fn != nil {
			fn(data)
		}
	}
}

// keepAlive sends periodic pings until the read loop exits.
func (c *Client) keepAlive(conn *websocket.Conn, readDone <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-readDone:
			return
		case <-ticker.C:
			c.wsMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, c.writeDeadline())
			c.wsMu.Unlock()
			if err != nil {
				c.logger.Debug("ping failed", "error", err)
				conn.Close()
				return
			}
		}
	}
}

// writeDeadline returns the zero time, meaning no deadline, when
// WriteTimeout is unset.
func (c *Client) writeDeadline() time.Time {
	if c.cfg.WriteTimeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(c.cfg.WriteTimeout)
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	if c.closed || c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	fn := c.onStateChange
	c.mu.Unlock()

	c.logger.Debug("state changed", "state", s)
	if fn != nil {
		fn(s)
	}
}

// SendBinary sends a binary frame. It returns false, without error, when
// the connection is not open or the write fails.
func (c *Client) SendBinary(payload []byte) bool {
	return c.send(websocket.BinaryMessage, payload)
}

// SendText sends a text frame with the same drop semantics as SendBinary.
func (c *Client) SendText(payload []byte) bool {
	return c.send(websocket.TextMessage, payload)
}

func (c *Client) send(messageType int, payload []byte) bool {
	c.mu.Lock()
	ws := c.ws
	open := c.state == StateOpen && !c.closed
	c.mu.Unlock()

	if !open || ws == nil {
		c.dropped.Add(1)
		return false
	}

	c.wsMu.Lock()
	ws.SetWriteDeadline(c.writeDeadline())
	err := ws.WriteMessage(messageType, payload)
	c.wsMu.Unlock()

	if err != nil {
		c.dropped.Add(1)
		c.logger.Debug("write failed", "error", err)
		// The read loop observes the broken connection and reconnects.
		ws.Close()
		return false
	}
	c.sent.Add(1)
	return true
}

// Close shuts the connection down and disables reconnection. Safe to call
// multiple times.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	ws := c.ws
	started := c.started
	prev := c.state
	c.state = StateClosed
	fn := c.onStateChange
	c.mu.Unlock()

	c.cancel()
	if ws != nil {
		c.wsMu.Lock()
		err := ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.wsMu.Unlock()
		if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			c.logger.Debug("close frame failed", "error", err)
		}
		ws.Close()
	}
	if started {
		<-c.done
	}

	c.logger.Info("transport closed", "sent", c.sent.Load(), "dropped", c.dropped.Load())
	if prev != StateClosed && fn != nil {
		fn(StateClosed)
	}
	return nil
}

// Stats returns connection counters.
func (c *Client) Stats() Stats {
	return Stats{
		ID:         c.id,
		State:      c.State().String(),
		Connects:   c.connects.Load(),
		Reconnects: c.reconnects.Load(),
		Sent:       c.sent.Load(),
		Dropped:    c.dropped.Load(),
		Received:   c.received.Load(),
	}
}
