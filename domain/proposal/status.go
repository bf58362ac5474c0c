package proposal

// Status represents the lifecycle state of a proposal.
type Status string

const (
	// StatusDraft is the initial state for new proposals.
	StatusDraft Status = "draft"

	// StatusSubmitted indicates the proposal passed the submission gate.
	StatusSubmitted Status = "submitted"

	// StatusEvaluating indicates the proposal is under review.
	StatusEvaluating Status = "evaluating"

	// StatusAccepted indicates the proposal was selected.
	StatusAccepted Status = "accepted"

	// StatusRejected indicates the proposal was not selected.
	StatusRejected Status = "rejected"
)

// StatusTransitions defines valid status transitions.
var StatusTransitions = map[Status][]Status{
	StatusDraft:      {StatusSubmitted},
	StatusSubmitted:  {StatusEvaluating, StatusAccepted, StatusRejected, StatusDraft},
	StatusEvaluating: {StatusAccepted, StatusRejected},
}

// CanTransitionTo returns true if the transition from the current status to
// target is valid.
func (s Status) CanTransitionTo(target Status) bool {
	for _, valid := range StatusTransitions[s] {
		if valid == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected
}
