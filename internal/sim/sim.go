// Package sim drives the physical confirmation of a resolution: a marker
// launched inside the requirement pentagon, bounced with restitution and
// friction, then steered onto the landing target the calculator picked. The
// simulator renders the verdict; it never decides one.
package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/MJE43/dispatch-resolve-go/internal/engine"
	"github.com/MJE43/dispatch-resolve-go/internal/geometry"
	"github.com/MJE43/dispatch-resolve-go/internal/resolve"
)

// degenerateArea is the pentagon area below which collision is pointless.
const degenerateArea = 1e-9

// boundaryEpsilon tolerates the settled target sitting a rounding error off
// the coverage boundary. A zero agent stat adjacent to the sector collapses
// a boundary edge onto the sector axis itself; the target then lies on that
// edge exactly, but the computed axis direction carries ~1e-17 of rounding
// and the raw point-in-ring test can land on the wrong side.
const boundaryEpsilon = 1e-9

// ErrInvalidSector indicates a verdict whose sector is out of range.
var ErrInvalidSector = errors.New("verdict sector out of range")

// Outcome is the terminal report of one confirmation.
type Outcome struct {
	// Success mirrors the verdict. The simulator never overrides it.
	Success bool            `json:"success"`
	Verdict resolve.Verdict `json:"verdict"`

	// Final is the marker's resting position.
	Final orb.Point `json:"final"`

	// Contained reports the point-in-pentagon test of Final against the
	// coverage pentagon. It agrees with Success except on degenerate
	// geometry, where the mismatch is logged and the verdict stands.
	Contained bool `json:"contained"`

	Elapsed float64 `json:"elapsed"`
	Bounces int     `json:"bounces"`

	// Forced marks a confirmation that ran out of time and was snapped to
	// the target instead of converging on it.
	Forced bool `json:"forced"`
}

// Confirmation is one in-flight physical confirmation. It owns the marker
// state exclusively; construct with Begin, advance with Step, and read the
// marker through Position. It is not safe for concurrent use; the intended
// caller is a single cooperative scheduler ticking it once per frame.
type Confirmation struct {
	opts    Options
	verdict resolve.Verdict
	src     engine.Source

	requirement orb.Ring
	coverage    orb.Ring
	edges       []geometry.Edge
	target      orb.Point
	degenerate  bool

	pos     orb.Point
	vel     orb.Point
	elapsed float64
	phase   Phase
	bounces int
	forced  bool

	onResult func(Outcome)
	outcome  Outcome
	canceled bool
}

// Begin builds both pentagons, places the marker, and draws the launch
// direction from src. The verdict must come from resolve.Resolve for the
// same stat vectors; Begin trusts it and only checks structural validity.
func Begin(verdict resolve.Verdict, agentStats, requirement resolve.StatVector, src engine.Source, opts Options) (*Confirmation, error) {
	if err := requirement.Validate(); err != nil {
		return nil, fmt.Errorf("requirement: %w", err)
	}
	if err := agentStats.Validate(); err != nil {
		return nil, fmt.Errorf("agent stats: %w", err)
	}
	if verdict.Sector < 0 || verdict.Sector >= resolve.AxisCount {
		return nil, ErrInvalidSector
	}

	c := &Confirmation{
		opts:        opts,
		verdict:     verdict,
		src:         src,
		requirement: geometry.Pentagon(requirement),
		coverage:    geometry.Pentagon(agentStats),
		target:      geometry.TargetPoint(verdict.Sector, verdict.Distance, requirement),
		phase:       PhaseLaunched,
	}
	c.edges = geometry.Edges(c.requirement)
	c.degenerate = math.Abs(geometry.Area(c.requirement)) < degenerateArea

	if c.degenerate {
		// Nothing to bounce inside; guidance from the origin still
		// terminates and the verdict still gets reported.
		c.pos = orb.Point{}
		c.vel = orb.Point{}
		return c, nil
	}

	c.pos = geometry.Centroid(c.requirement)
	angle := src.NextFloat() * 2 * math.Pi
	c.vel = orb.Point{
		math.Cos(angle) * opts.InitialSpeed,
		math.Sin(angle) * opts.InitialSpeed,
	}
	return c, nil
}

// OnResult registers the completion callback. It fires at most once, at the
// reveal transition, and never after Cancel.
func (c *Confirmation) OnResult(fn func(Outcome)) {
	c.onResult = fn
}

// Position returns the marker's current position.
func (c *Confirmation) Position() orb.Point {
	return c.pos
}

// Phase returns the current lifecycle phase.
func (c *Confirmation) Phase() Phase {
	return c.phase
}

// Done reports whether the confirmation has revealed its result.
func (c *Confirmation) Done() bool {
	return c.phase == PhaseRevealed
}

// Result returns the outcome once revealed.
func (c *Confirmation) Result() (Outcome, bool) {
	if c.phase != PhaseRevealed {
		return Outcome{}, false
	}
	return c.outcome, true
}

// Cancel releases the marker state. No callback fires afterwards and the
// confirmation cannot be resumed.
func (c *Confirmation) Cancel() {
	c.canceled = true
	c.phase = PhaseIdle
	c.pos = orb.Point{}
	c.vel = orb.Point{}
}

// ForceSettle snaps the marker to the target and reveals immediately. Used
// when a new resolution preempts a confirmation still in flight.
func (c *Confirmation) ForceSettle() {
	if c.canceled || c.phase == PhaseRevealed {
		return
	}
	if c.phase != PhaseSettled {
		c.settle(true)
	}
	c.reveal()
}

// Step advances the simulation by dt seconds of accumulated time and
// returns the resulting phase. The caller supplies elapsed time per tick;
// the simulation makes no wall-clock assumptions and is safe to suspend
// indefinitely between calls. dt is clamped to MaxStep.
func (c *Confirmation) Step(dt float64) Phase {
	if c.canceled || dt <= 0 || math.IsNaN(dt) {
		return c.phase
	}

	switch c.phase {
	case PhaseIdle, PhaseRevealed:
		return c.phase
	case PhaseSettled:
		c.reveal()
		return c.phase
	}

	if dt > c.opts.MaxStep {
		dt = c.opts.MaxStep
	}
	c.elapsed += dt

	if c.phase == PhaseLaunched {
		if c.degenerate {
			c.phase = PhaseGuided
		} else {
			c.phase = PhaseBouncing
		}
	}

	c.pos = geometry.Add(c.pos, geometry.Scale(c.vel, dt))

	switch c.phase {
	case PhaseBouncing:
		c.collide()
		c.applyFriction(dt)
		c.clampSpeed()
		if geometry.Length(c.vel) < c.opts.SlowSpeed || c.elapsed >= c.opts.GuideFraction*c.opts.MaxDuration {
			c.phase = PhaseGuided
		}
	case PhaseGuided:
		c.steer(dt)
	}

	if c.phase != PhaseSettled && c.elapsed >= c.opts.MaxDuration {
		c.settle(true)
	}

	return c.phase
}

// collide pushes the marker back inside the requirement pentagon and
// reflects its velocity off any edge it crossed.
func (c *Confirmation) collide() {
	for _, edge := range c.edges {
		sd := edge.SignedDistance(c.pos)
		if math.IsInf(sd, 1) || sd >= c.opts.MarkerRadius {
			continue
		}

		c.pos = geometry.Add(c.pos, geometry.Scale(edge.Normal, c.opts.MarkerRadius-sd))

		// Only reflect if still moving into the edge; the push-out alone
		// handles a marker grazing along it.
		approach := geometry.Dot(c.vel, edge.Normal)
		if approach >= 0 {
			continue
		}

		c.vel = geometry.Sub(c.vel, geometry.Scale(edge.Normal, 2*approach))
		c.vel = geometry.Scale(c.vel, c.opts.Restitution)

		perturb := (c.src.NextFloat()*2 - 1) * c.opts.MaxPerturb
		c.vel = geometry.Rotate(c.vel, perturb)
		c.bounces++
	}
}

func (c *Confirmation) applyFriction(dt float64) {
	keep := 1 - c.opts.FrictionRate*dt
	if keep < 0 {
		keep = 0
	}
	c.vel = geometry.Scale(c.vel, keep)
}

// clampSpeed bounds velocity magnitude. Numerical instability gets clamped
// rather than propagated; a slightly imperfect trajectory beats a broken
// one, and the verdict is unaffected either way.
func (c *Confirmation) clampSpeed() {
	limit := 2 * c.opts.InitialSpeed
	if limit <= 0 {
		return
	}
	speed := geometry.Length(c.vel)
	if speed > limit {
		c.vel = geometry.Scale(c.vel, limit/speed)
	}
}

// steer blends velocity toward the target, ramping up as elapsed time
// approaches the deadline.
func (c *Confirmation) steer(dt float64) {
	to := geometry.Sub(c.target, c.pos)
	dist := geometry.Length(to)
	if dist <= c.opts.SettleDistance || dist <= geometry.Length(c.vel)*dt {
		c.settle(false)
		return
	}

	start := c.opts.GuideFraction * c.opts.MaxDuration
	ramp := 0.3
	if c.opts.MaxDuration > start {
		ramp += 0.7 * clamp01((c.elapsed-start)/(c.opts.MaxDuration-start))
	}

	desired := geometry.Scale(geometry.Scale(to, 1/dist), c.opts.GuideSpeed)
	w := clamp01(c.opts.GuideRate * ramp * dt)
	c.vel = geometry.Add(geometry.Scale(c.vel, 1-w), geometry.Scale(desired, w))
}

// settle freezes the marker on the target. Snapping exactly onto the
// precomputed point is what makes the containment test below agree with the
// calculator's comparison.
func (c *Confirmation) settle(forced bool) {
	if forced {
		c.forced = true
		if c.opts.Logger != nil {
			c.opts.Logger.Printf("confirmation did not converge after %.2fs (%d bounces); snapping to target", c.elapsed, c.bounces)
		}
	}
	c.pos = c.target
	c.vel = orb.Point{}
	c.phase = PhaseSettled
}

// reveal emits the outcome and moves to the terminal phase.
func (c *Confirmation) reveal() {
	contained := geometry.ContainsWithin(c.coverage, c.pos, boundaryEpsilon)
	if contained != c.verdict.Success && c.opts.Logger != nil {
		c.opts.Logger.Printf("containment disagrees with verdict (success=%t contained=%t coverage_area=%.6f); verdict stands",
			c.verdict.Success, contained, geometry.Area(c.coverage))
	}

	c.outcome = Outcome{
		Success:   c.verdict.Success,
		Verdict:   c.verdict,
		Final:     c.pos,
		Contained: contained,
		Elapsed:   c.elapsed,
		Bounces:   c.bounces,
		Forced:    c.forced,
	}
	c.phase = PhaseRevealed

	if c.onResult != nil && !c.canceled {
		c.onResult(c.outcome)
	}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
