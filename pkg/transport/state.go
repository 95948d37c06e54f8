package transport

import "errors"

// State is the connection state.
type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// ErrClosed is returned by Connect after Close.
var ErrClosed = errors.New("transport: client closed")

// Stats contains connection counters.
type Stats struct {
	ID         string `json:"id"`
	State      string `json:"state"`
	Connects   int64  `json:"connects"`
	Reconnects int64  `json:"reconnects"`
	Sent       int64  `json:"sent"`
	Dropped    int64  `json:"dropped"`
	Received   int64  `json:"received"`
}
