package capture

import "time"

// RateGate accepts a tick only when at least interval has elapsed since the
// last accepted tick. The first tick it sees only sets the baseline.
type RateGate struct {
	interval time.Duration
	last     time.Time
	primed   bool
}

// NewRateGate creates a gate for the given minimum interval.
func NewRateGate(interval time.Duration) *RateGate {
	return &RateGate{interval: interval}
}

// Allow reports whether a frame may be taken at now.
func (g *RateGate) Allow(now time.Time) bool {
	if !g.primed {
		g.primed = true
		g.last = now
		return false
	}
	if now.Sub(g.last) < g.interval {
		return false
	}
	g.last = now
	return true
}
