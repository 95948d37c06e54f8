// Package hub fans messages out to dashboard websocket clients. One
// goroutine owns the client set; each client has its own write pump.
package hub

// MessageType selects the websocket frame type.
type MessageType int

const (
	// TextMessage carries JSON.
	TextMessage MessageType = iota
	// BinaryMessage carries raw bytes such as PNG previews.
	BinaryMessage
)

// Message is one broadcast payload.
type Message struct {
	Type MessageType
	Data []byte
}

// NewTextMessage wraps pre-encoded JSON.
func NewTextMessage(data []byte) Message {
	return Message{Type: TextMessage, Data: data}
}

// NewBinaryMessage wraps a binary payload.
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}
