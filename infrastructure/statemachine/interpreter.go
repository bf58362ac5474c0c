package statemachine

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/decision-go/domain/process"
)

// ErrNotNextPhase is returned when an advance targets anything but the
// phase immediately after the instance's current one.
var ErrNotNextPhase = errors.New("target is not the next phase")

// Interpreter wraps the statekit interpreter with phase-advancement
// functionality.
type Interpreter struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewInterpreter creates a new interpreter for a phase machine.
func NewInterpreter(machine *statekit.MachineConfig[*Context], ctx *Context) *Interpreter {
	interp := statekit.NewInterpreter(machine)
	// Update the context reference in the machine
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	return &Interpreter{
		interp: interp,
		ctx:    ctx,
	}
}

// Start initializes the interpreter and enters the current phase.
func (i *Interpreter) Start() {
	i.interp.Start()
}

// Stop stops the interpreter.
func (i *Interpreter) Stop() {
	i.interp.Stop()
}

// CurrentPhase returns the phase the machine currently sits in.
func (i *Interpreter) CurrentPhase() string {
	state := i.interp.State()
	return string(state.Value)
}

// Advance sends an ADVANCE event targeting toPhaseID. The guard rejects
// anything but the immediate next phase, in which case the machine stays
// put and an error is returned.
func (i *Interpreter) Advance(toPhaseID string) error {
	from := i.CurrentPhase()

	i.interp.Send(statekit.Event{
		Type:    EventAdvance,
		Payload: AdvancePayload{ToPhaseID: toPhaseID},
	})

	if i.CurrentPhase() != toPhaseID {
		return fmt.Errorf("%w: advance from %s to %s", ErrNotNextPhase, from, toPhaseID)
	}
	return nil
}

// Advance validates and applies a single-step phase move on the in-memory
// instance. The caller persists the result; this only proves the move is
// legal for the instance's phase ordering.
func Advance(instance *process.Instance, toPhaseID string) error {
	machine, err := NewPhaseMachine(instance)
	if err != nil {
		return err
	}

	ctx := NewContext(instance)
	interp := NewInterpreter(machine, ctx)
	interp.Start()
	defer interp.Stop()

	return interp.Advance(toPhaseID)
}
