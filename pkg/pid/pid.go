// Package pid implements the proportional-integral-derivative feedback
// filter used by the decision engine, one instance per controlled axis.
package pid

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Gains are the fixed P/I/D coefficients, set at construction.
type Gains struct {
	P float64
	I float64
	D float64
}

// PID is a stateful feedback filter. It is not safe for concurrent use;
// each instance belongs to exactly one control loop.
//
// The integral accumulator is never cleared during flight, so a sustained
// error winds it up until the downstream clamp saturates. That is the
// intended behavior of this controller, not an oversight: the vehicle
// operates in a small capture volume and a persistent error means it is
// about to be grounded by a staleness halt anyway.
type PID struct {
	gains Gains
	clk   clock.Clock

	integral float64
	prevErr  float64
	prevAt   time.Time
	primed   bool // false until the first Update establishes history
}

// New returns a PID with the given gains. The clock is injected so tests
// can drive the accumulator deterministically; pass clock.New() for wall
// time.
func New(g Gains, clk clock.Clock) *PID {
	if clk == nil {
		clk = clock.New()
	}
	return &PID{gains: g, clk: clk}
}

// Update feeds the current error value through the filter and returns
// P·err + I·∫err·dt + D·d(err)/dt, advancing the integral accumulator and
// the previous-error sample. The first call has no history, so it
// contributes no integral and no derivative term.
func (p *PID) Update(err float64) float64 {
	now := p.clk.Now()

	var dt float64
	if p.primed {
		dt = now.Sub(p.prevAt).Seconds()
	}

	out := p.gains.P * err

	p.integral += err * dt
	out += p.gains.I * p.integral

	if dt > 0 {
		out += p.gains.D * (err - p.prevErr) / dt
	}

	p.prevErr = err
	p.prevAt = now
	p.primed = true
	return out
}

// Reset clears the accumulated state. The flight controller never calls
// this; it exists for bench tuning.
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.prevAt = time.Time{}
	p.primed = false
}
