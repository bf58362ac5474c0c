package transition

import (
	"context"
	"time"
)

// Store defines the interface for scheduled transition persistence.
type Store interface {
	// Save persists a new transition.
	Save(ctx context.Context, t *ScheduledTransition) error

	// Get retrieves a transition by ID.
	Get(ctx context.Context, id string) (*ScheduledTransition, error)

	// UpdateDate moves an uncompleted transition's scheduled date.
	// Returns ErrCompletedImmutable for completed transitions.
	UpdateDate(ctx context.Context, id string, date time.Time) error

	// Delete removes an uncompleted transition.
	// Returns ErrCompletedImmutable for completed transitions.
	Delete(ctx context.Context, id string) error

	// ListByInstance returns all transitions for a process instance.
	ListByInstance(ctx context.Context, instanceID string) ([]*ScheduledTransition, error)

	// ListDue returns uncompleted transitions whose scheduled date has
	// passed at now, ordered by scheduled date ascending. A limit of 0
	// means no limit.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*ScheduledTransition, error)
}

// Applier applies a due transition as a single atomic unit: the owning
// instance's current phase moves to the transition's target phase and the
// transition is stamped completed. Both writes succeed or fail together.
type Applier interface {
	// Apply applies the transition at now. Applying an already-completed
	// transition returns ErrAlreadyCompleted without touching anything —
	// callers treat that as a race-detected no-op, not a failure.
	Apply(ctx context.Context, t *ScheduledTransition, now time.Time) error
}
