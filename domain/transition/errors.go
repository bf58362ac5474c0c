package transition

import "errors"

// Domain errors for scheduled transition operations.
var (
	// ErrTransitionNotFound is returned when a transition does not exist.
	ErrTransitionNotFound = errors.New("scheduled transition not found")

	// ErrTransitionExists is returned when creating a transition whose
	// (from, to) pair already exists for the instance.
	ErrTransitionExists = errors.New("scheduled transition already exists")

	// ErrAlreadyCompleted is returned when applying a transition that was
	// completed by another worker. Callers treat this as a no-op.
	ErrAlreadyCompleted = errors.New("transition already completed")

	// ErrCompletedImmutable is returned when mutating or deleting a
	// completed transition. Completed transitions are historical facts.
	ErrCompletedImmutable = errors.New("completed transition is immutable")

	// ErrInvalidTransition is returned when a transition is structurally
	// invalid (empty IDs, zero scheduled date).
	ErrInvalidTransition = errors.New("invalid scheduled transition")

	// ErrConnectionFailed is returned when connection to the store backend fails.
	ErrConnectionFailed = errors.New("store connection failed")
)
