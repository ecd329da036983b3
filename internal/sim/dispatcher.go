package sim

import (
	"errors"
	"sync"

	"github.com/MJE43/dispatch-resolve-go/internal/engine"
	"github.com/MJE43/dispatch-resolve-go/internal/resolve"
)

// ErrConfirmationActive indicates a Begin while a prior confirmation is
// still bouncing or being guided.
var ErrConfirmationActive = errors.New("a confirmation is already in flight")

// Dispatcher enforces the one-resolution-in-flight rule for a dispatch
// context. The mutex only guards the dispatcher's own bookkeeping; the
// confirmation itself stays single-threaded and is stepped by the caller.
type Dispatcher struct {
	mu     sync.Mutex
	opts   Options
	active *Confirmation
}

// NewDispatcher creates a dispatcher with the given simulation options.
func NewDispatcher(opts Options) *Dispatcher {
	return &Dispatcher{opts: opts}
}

// Begin starts a confirmation, rejecting with ErrConfirmationActive if one
// is already in flight.
func (d *Dispatcher) Begin(verdict resolve.Verdict, agentStats, requirement resolve.StatVector, src engine.Source) (*Confirmation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.busy() {
		return nil, ErrConfirmationActive
	}
	return d.begin(verdict, agentStats, requirement, src)
}

// BeginForced starts a confirmation, force-settling any prior one first.
func (d *Dispatcher) BeginForced(verdict resolve.Verdict, agentStats, requirement resolve.StatVector, src engine.Source) (*Confirmation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.busy() {
		d.active.ForceSettle()
	}
	return d.begin(verdict, agentStats, requirement, src)
}

// Active returns the confirmation currently in flight, if any.
func (d *Dispatcher) Active() *Confirmation {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.busy() {
		return d.active
	}
	return nil
}

func (d *Dispatcher) busy() bool {
	return d.active != nil && !d.active.Done() && !d.active.canceled
}

func (d *Dispatcher) begin(verdict resolve.Verdict, agentStats, requirement resolve.StatVector, src engine.Source) (*Confirmation, error) {
	c, err := Begin(verdict, agentStats, requirement, src, d.opts)
	if err != nil {
		return nil, err
	}
	d.active = c
	return c, nil
}
