package sim

import "log"

// Options tune the confirmation simulation. All distances and speeds are in
// pentagon units (a MaxStat axis has vertex radius 1.0), durations in
// seconds of accumulated step time.
type Options struct {
	// InitialSpeed is the launch speed of the marker.
	InitialSpeed float64

	// Restitution is the fraction of speed retained after a bounce. Must be
	// below 1 so every bounce sheds energy.
	Restitution float64

	// FrictionRate is the fraction of velocity shed per second of step time.
	FrictionRate float64

	// MaxPerturb bounds the random angular kick applied on each bounce, in
	// radians either way.
	MaxPerturb float64

	// SlowSpeed is the speed below which bouncing hands over to guidance.
	SlowSpeed float64

	// GuideFraction of MaxDuration after which guidance takes over even if
	// the marker is still fast.
	GuideFraction float64

	// GuideSpeed is the cruise speed while steering toward the target.
	GuideSpeed float64

	// GuideRate controls how aggressively velocity blends toward the
	// target, per second at full ramp.
	GuideRate float64

	// SettleDistance is the target proximity that counts as settled.
	SettleDistance float64

	// MarkerRadius is the physical radius used in edge collision.
	MarkerRadius float64

	// MaxDuration bounds the whole confirmation; on expiry the marker is
	// force-snapped to the target.
	MaxDuration float64

	// MaxStep clamps a single Step's dt so a long scheduler stall cannot
	// tunnel the marker through an edge.
	MaxStep float64

	// Logger receives non-convergence and containment-mismatch
	// observations. Nil disables them.
	Logger *log.Logger
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{
		InitialSpeed:   1.6,
		Restitution:    0.72,
		FrictionRate:   0.9,
		MaxPerturb:     0.25,
		SlowSpeed:      0.25,
		GuideFraction:  0.55,
		GuideSpeed:     0.6,
		GuideRate:      6.0,
		SettleDistance: 0.015,
		MarkerRadius:   0.02,
		MaxDuration:    6.0,
		MaxStep:        0.05,
	}
}
