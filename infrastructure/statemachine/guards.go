package statemachine

import "github.com/felixgeelhaar/statekit"

// guardTargetsNextPhase admits an ADVANCE only when the event targets the
// phase immediately after the instance's current one. Since our context is
// *Context, the guard receives *Context directly.
func guardTargetsNextPhase(ctx *Context, event statekit.Event) bool {
	if ctx == nil || ctx.Instance == nil {
		return false
	}

	payload, ok := event.Payload.(AdvancePayload)
	if !ok {
		return false
	}

	next, ok := ctx.Instance.NextPhase(ctx.Instance.CurrentPhaseID)
	if !ok {
		return false
	}
	return next.PhaseID == payload.ToPhaseID
}
