package protocol

// =============================================================================
// Helper functions for creating packets
// =============================================================================

// NewDrawPacket creates a packet asserting draw mode with the given hand.
func NewDrawPacket(hand HandFrame) *Inbound {
	return &Inbound{Mode: ModeDraw, HandData: hand}
}

// NewIdlePacket creates a packet asserting idle mode with the given hand.
func NewIdlePacket(hand HandFrame) *Inbound {
	return &Inbound{Mode: ModeIdle, HandData: hand}
}

// NewNoHandPacket creates a packet reporting that no hand was detected.
func NewNoHandPacket(mode Mode) *Inbound {
	return &Inbound{Mode: mode}
}

// HandAt builds a 21-landmark hand whose tip sits at (x, y). The remaining
// landmarks are laid out below the tip so the skeleton has a plausible shape.
func HandAt(x, y float64) HandFrame {
	hand := make(HandFrame, 21)
	for i := range hand {
		off := float64(TipIndex-i) * 0.01
		if i > TipIndex {
			off = float64(i-TipIndex) * 0.008
		}
		hand[i] = Landmark{X: clamp01(x + float64(i%4-2)*0.01), Y: clamp01(y + off)}
	}
	hand[TipIndex] = Landmark{X: clamp01(x), Y: clamp01(y)}
	return hand
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
