// Package statemachine provides the statekit integration for decision
// process phase advancement. Each instance's phase list compiles into a
// linear statechart; routing advancement intent through it enforces that
// an instance never skips phases.
package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/decision-go/domain/process"
)

// EventAdvance moves an instance to its next phase.
const EventAdvance statekit.EventType = "ADVANCE"

// Context carries the instance through the state machine.
type Context struct {
	Instance *process.Instance
}

// NewContext creates a new machine context.
func NewContext(instance *process.Instance) *Context {
	return &Context{Instance: instance}
}

// AdvancePayload carries the target phase with an ADVANCE event.
type AdvancePayload struct {
	ToPhaseID string
}

// NewPhaseMachine compiles the instance's phase list into a statechart:
// one state per phase in list order, the final phase terminal, and a
// guarded ADVANCE transition chaining each phase to its successor. The
// machine starts at the instance's current phase.
func NewPhaseMachine(instance *process.Instance) (*statekit.MachineConfig[*Context], error) {
	if err := instance.Validate(); err != nil {
		return nil, err
	}

	builder := statekit.NewMachine[*Context]("process-" + instance.ID).
		WithInitial(statekit.StateID(instance.CurrentPhaseID)).
		WithContext(&Context{}).
		WithAction("recordAdvance", recordAdvance).
		WithGuard("targetsNextPhase", guardTargetsNextPhase)

	for i := range instance.Phases {
		id := statekit.StateID(instance.Phases[i].PhaseID)
		if i == len(instance.Phases)-1 {
			builder = builder.State(id).
				Final().
				Done()
			continue
		}
		next := statekit.StateID(instance.Phases[i+1].PhaseID)
		builder = builder.State(id).
			On(EventAdvance).Target(next).Guard("targetsNextPhase").Do("recordAdvance").
			Done()
	}

	return builder.Build()
}
