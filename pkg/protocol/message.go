// Package protocol defines the WebSocket wire contract between the capture client
// and the hand-tracking backend.
//
// Outbound (client -> backend) messages carry camera frames. Inbound
// (backend -> client) messages are always structured JSON text:
//
//	{"mode": "draw", "hand_data": [{"x": 0.5, "y": 0.4}, ...], "shape": "circle"}
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// TipIndex is the landmark index the backend designates as the drawing cursor
// (index finger tip in the 21-point hand model).
const TipIndex = 8

// Mode is the backend-asserted drawing intent.
type Mode string

const (
	ModeDraw Mode = "draw"
	ModeIdle Mode = "idle"
)

// IsDraw reports whether new landmark positions should extend a stroke.
// Every value other than "draw" is non-drawing.
func (m Mode) IsDraw() bool {
	return m == ModeDraw
}

// Label returns the display text for the mode.
func (m Mode) Label() string {
	if m == "" {
		return strings.ToUpper(string(ModeIdle))
	}
	return strings.ToUpper(string(m))
}

// Landmark is a normalized position in [0,1]² relative to the frame.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// HandFrame is the ordered landmark set for one detected hand.
type HandFrame []Landmark

// Tip returns the protocol-designated tip landmark.
// ok is false when the frame has no landmark at TipIndex.
func (h HandFrame) Tip() (Landmark, bool) {
	if len(h) <= TipIndex {
		return Landmark{}, false
	}
	return h[TipIndex], true
}

// Cursor returns the landmark used as the drawing cursor: the tip when
// present, otherwise the last landmark. ok is false for an empty frame.
func (h HandFrame) Cursor() (Landmark, bool) {
	if tip, ok := h.Tip(); ok {
		return tip, true
	}
	if len(h) == 0 {
		return Landmark{}, false
	}
	return h[len(h)-1], true
}

// Inbound is a landmark/mode packet from the backend.
type Inbound struct {
	Mode     Mode      `json:"mode"`
	HandData HandFrame `json:"hand_data,omitempty"`
	Shape    string    `json:"shape,omitempty"`
}

// HasHand reports whether a hand was detected this tick.
func (in *Inbound) HasHand() bool {
	return len(in.HandData) > 0
}

// ParseInbound decodes a backend packet. Anything other than a JSON object,
// including null, is malformed.
func ParseInbound(data []byte) (*Inbound, error) {
	if trimmed := bytes.TrimLeft(data, " \t\r\n"); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformed)
	}
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &in, nil
}

// Bytes returns the JSON encoding of the packet.
func (in *Inbound) Bytes() ([]byte, error) {
	return json.Marshal(in)
}
