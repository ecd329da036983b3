package sim

// Phase tracks a confirmation through its lifecycle. Transitions only move
// forward; Cancel is the one exception and drops straight back to PhaseIdle.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseLaunched
	PhaseBouncing
	PhaseGuided
	PhaseSettled
	PhaseRevealed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLaunched:
		return "launched"
	case PhaseBouncing:
		return "bouncing"
	case PhaseGuided:
		return "guided"
	case PhaseSettled:
		return "settled"
	case PhaseRevealed:
		return "revealed"
	default:
		return "unknown"
	}
}
