package transport

import "sync"

// Conn is the connection surface used by the session. *Client and
// *MockConn implement it.
type Conn interface {
	Connect() error
	SendBinary(payload []byte) bool
	SendText(payload []byte) bool
	OnMessage(fn func(data []byte))
	OnStateChange(fn func(State))
	State() State
	Close() error
}

var (
	_ Conn = (*Client)(nil)
	_ Conn = (*MockConn)(nil)
)

// MockConn is an in-memory Conn for tests. Tests drive it with SetState
// and Deliver.
type MockConn struct {
	mu            sync.Mutex
	state         State
	connected     bool
	closed        bool
	closeCalls    int
	binary        [][]byte
	text          [][]byte
	onMessage     func([]byte)
	onStateChange func(State)
}

// NewMockConn creates a mock in the Closed state.
func NewMockConn() *MockConn {
	return &MockConn{state: StateClosed}
}

// Connect moves the mock to Open.
func (m *MockConn) Connect() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.connected = true
	m.mu.Unlock()
	m.SetState(StateOpen)
	return nil
}

func (m *MockConn) SendBinary(payload []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateOpen {
		return false
	}
	m.binary = append(m.binary, payload)
	return true
}

func (m *MockConn) SendText(payload []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateOpen {
		return false
	}
	m.text = append(m.text, payload)
	return true
}

func (m *MockConn) OnMessage(fn func([]byte)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onMessage = fn
}

func (m *MockConn) OnStateChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChange = fn
}

func (m *MockConn) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Close moves the mock to Closed. Safe to call multiple times.
func (m *MockConn) Close() error {
	m.mu.Lock()
	m.closeCalls++
	m.closed = true
	m.mu.Unlock()
	m.SetState(StateClosed)
	return nil
}

// SetState changes state and fires the state handler.
func (m *MockConn) SetState(s State) {
	m.mu.Lock()
	if m.state == s {
		m.mu.Unlock()
		return
	}
	m.state = s
	fn := m.onStateChange
	m.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

// Deliver invokes the message handler as if data had arrived.
func (m *MockConn) Deliver(data []byte) {
	m.mu.Lock()
	fn := m.onMessage
	m.mu.Unlock()
	if fn != nil {
		fn(data)
	}
}

// Binary returns the binary frames sent so far.
func (m *MockConn) Binary() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.binary...)
}

// Text returns the text frames sent so far.
func (m *MockConn) Text() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.text...)
}

// CloseCalls returns how many times Close was called.
func (m *MockConn) CloseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls
}
