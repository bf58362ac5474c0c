package process

import "errors"

// Domain errors for process templates and instances.
var (
	// ErrNoPhases is returned when a template or instance has zero phases.
	ErrNoPhases = errors.New("process has no phases")

	// ErrInvalidTemplate is returned when a template violates a structural
	// invariant (empty or duplicate phase IDs).
	ErrInvalidTemplate = errors.New("invalid process template")

	// ErrUnknownPhase is returned when a phase ID does not reference any
	// phase of the instance or template.
	ErrUnknownPhase = errors.New("unknown phase")

	// ErrMissingEndDate is returned when a date-driven phase has no end
	// date. A date-driven phase without an end date is an invalid
	// configuration, not an absent one.
	ErrMissingEndDate = errors.New("date-driven phase has no end date")

	// ErrInstanceNotFound is returned when a process instance does not exist.
	ErrInstanceNotFound = errors.New("process instance not found")

	// ErrInstanceExists is returned when creating an instance that already exists.
	ErrInstanceExists = errors.New("process instance already exists")

	// ErrInvalidInstanceID is returned when an instance ID is invalid (e.g. empty).
	ErrInvalidInstanceID = errors.New("invalid process instance ID")

	// ErrTemplateNotFound is returned when a template does not exist.
	ErrTemplateNotFound = errors.New("process template not found")

	// ErrConnectionFailed is returned when connection to the store backend fails.
	ErrConnectionFailed = errors.New("store connection failed")

	// ErrOperationTimeout is returned when a store operation times out.
	ErrOperationTimeout = errors.New("store operation timeout")
)
