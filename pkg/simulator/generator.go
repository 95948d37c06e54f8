package simulator

import (
	"math"

	"github.com/teslashibe/go-aircanvas/pkg/protocol"
)

// Generator produces the synthetic packet stream for one client.
type Generator struct {
	cfg Config
	n   int
}

// NewGenerator creates a generator starting at reply zero.
func NewGenerator(cfg Config) *Generator {
	return &Generator{cfg: cfg}
}

// Next returns the packet for the next reply.
func (g *Generator) Next() *protocol.Inbound {
	n := g.n
	g.n++

	period := g.cfg.DrawFrames + g.cfg.IdleFrames
	cycle, pos := n/period, n%period
	drawing := pos < g.cfg.DrawFrames

	if !drawing && g.cfg.AbsentEvery > 0 && cycle%g.cfg.AbsentEvery == g.cfg.AbsentEvery-1 {
		return protocol.NewNoHandPacket(protocol.ModeIdle)
	}

	theta := float64(n) * g.cfg.Step
	x := 0.5 + g.cfg.Radius*math.Cos(theta)
	y := 0.5 + g.cfg.Radius*math.Sin(theta)
	hand := protocol.HandAt(x, y)

	if drawing {
		return protocol.NewDrawPacket(hand)
	}
	in := protocol.NewIdlePacket(hand)
	if pos == g.cfg.DrawFrames && g.cfg.Shape != "" {
		in.Shape = g.cfg.Shape
	}
	return in
}

// Count returns how many packets have been generated.
func (g *Generator) Count() int { return g.n }
