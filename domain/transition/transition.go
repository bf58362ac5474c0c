// Package transition provides the scheduled transition domain: persisted
// records meaning "phase A ends at time T, then move to phase B".
package transition

import "time"

// Key identifies a transition within an instance. At most one transition
// can exist between two adjacent phases at a time, so the (from, to) pair
// is the identity, not a surrogate key.
type Key struct {
	FromPhaseID string
	ToPhaseID   string
}

// ScheduledTransition is a persisted, date-triggered phase transition.
type ScheduledTransition struct {
	// ID is the storage identifier.
	ID string `json:"id"`

	// ProcessInstanceID references the owning process instance.
	ProcessInstanceID string `json:"processInstanceId"`

	// FromPhaseID is the phase that ends when the transition fires.
	FromPhaseID string `json:"fromPhaseId"`

	// ToPhaseID is the phase the instance moves to.
	ToPhaseID string `json:"toPhaseId"`

	// ScheduledDate is when the transition becomes due.
	ScheduledDate time.Time `json:"scheduledDate"`

	// CompletedAt is set exactly once, when the monitor applies the
	// transition. A completed transition is immutable history: its dates
	// cannot change and it cannot be deleted by reconciliation.
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Key returns the transition's identity within its instance.
func (t *ScheduledTransition) Key() Key {
	return Key{FromPhaseID: t.FromPhaseID, ToPhaseID: t.ToPhaseID}
}

// Completed reports whether the transition has already been applied.
func (t *ScheduledTransition) Completed() bool {
	return t.CompletedAt != nil
}

// Due reports whether the transition is due and still uncompleted at now.
func (t *ScheduledTransition) Due(now time.Time) bool {
	return !t.Completed() && !t.ScheduledDate.After(now)
}
