package process

import "context"

// Store defines the interface for process instance persistence.
// Implementations may be in-memory, PostgreSQL, SQLite, or any other backend.
type Store interface {
	// Save persists a new instance.
	Save(ctx context.Context, instance *Instance) error

	// Get retrieves an instance by ID.
	Get(ctx context.Context, id string) (*Instance, error)

	// Update updates an existing instance.
	Update(ctx context.Context, instance *Instance) error

	// Delete removes an instance by ID.
	Delete(ctx context.Context, id string) error

	// List returns instances matching the filter.
	List(ctx context.Context, filter ListFilter) ([]*Instance, error)

	// SetCurrentPhase moves the instance's current phase pointer. Used by
	// explicit manual advancement; the transition monitor advances phases
	// through the transition applier instead, so the phase write and the
	// completion stamp land in one atomic unit.
	SetCurrentPhase(ctx context.Context, id, phaseID string) error
}

// ListFilter specifies criteria for listing instances.
type ListFilter struct {
	// Status filters by instance status (empty means all).
	Status []InstanceStatus

	// TemplateID filters by originating template (empty means all).
	TemplateID string

	// ProfileID filters by owning organization profile (empty means all).
	ProfileID string

	// Limit is the maximum number of instances to return (0 = no limit).
	Limit int

	// Offset is the number of instances to skip for pagination.
	Offset int
}

// TemplateRepository resolves decision process templates by ID.
type TemplateRepository interface {
	// Template returns the template with the given ID, or
	// ErrTemplateNotFound.
	Template(ctx context.Context, id string) (*Template, error)
}
