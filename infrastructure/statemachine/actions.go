package statemachine

import "github.com/felixgeelhaar/statekit"

// recordAdvance mirrors the machine's new state onto the instance.
// In statekit, actions receive a pointer to the context. Since our context
// is *Context, actions receive **Context.
func recordAdvance(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil || (*ctx).Instance == nil {
		return
	}

	payload, ok := event.Payload.(AdvancePayload)
	if !ok {
		return
	}
	(*ctx).Instance.CurrentPhaseID = payload.ToPhaseID
}
